package pgstore

import (
	"testing"

	"github.com/NHHoangTuan/todo-api/task"
	"github.com/google/go-cmp/cmp"
)

func TestWhereClause(t *testing.T) {
	where, args := whereClause(task.Filter{Status: task.StatusDone, Title: "ship"})
	if where != " WHERE status = $1 AND strpos(lower(title), lower($2)) > 0" {
		t.Fatalf("unexpected where clause %q", where)
	}
	if diff := cmp.Diff([]any{"done", "ship"}, args); diff != "" {
		t.Fatalf("args mismatch (-want +got):\n%s", diff)
	}

	where, args = whereClause(task.Filter{})
	if where != "" || args != nil {
		t.Fatalf("expected empty clause, got %q %v", where, args)
	}
}

func TestOrderClause(t *testing.T) {
	got := orderClause(nil)
	if got != " ORDER BY created_at DESC, id ASC" {
		t.Fatalf("unexpected default order %q", got)
	}

	got = orderClause([]task.SortKey{{Field: task.SortDueDate}, {Field: task.SortTitle, Desc: true}})
	want := " ORDER BY due_date IS NULL, due_date ASC, title DESC, id ASC"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}
