package birthday

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	logx "bdaybot/pkg/logx"
)

type fakeSource struct {
	people []Person
	err    error
}

func (f *fakeSource) List(ctx context.Context) ([]Person, error) {
	return f.people, f.err
}

func TestTodayMatchesTextAndDate(t *testing.T) {
	t.Parallel()
	src := &fakeSource{people: []Person{
		{LastName: "Ivanov", FirstName: "Ivan", MiddleName: "Ivanovich", Birth: TextBirth("01.01.1990")},
		{LastName: "Petrov", FirstName: "Petr", MiddleName: "Petrovich", Birth: TextBirth("15.06")},
		{LastName: "Sidorov", FirstName: "Sidr", MiddleName: "Sidorovich", Birth: DateBirth(1, time.January)},
	}}
	ix := NewIndex(src, logx.Nop())

	got, err := ix.Today(context.Background(), 1, time.January)
	if err != nil {
		t.Fatalf("Today: %v", err)
	}
	want := []string{"Ivanov Ivan Ivanovich", "Sidorov Sidr Sidorovich"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Today = %v, want %v", got, want)
	}
}

func TestTodayLiteralMatching(t *testing.T) {
	t.Parallel()
	// Text dates are compared verbatim: no zero-pad normalization.
	tests := []struct {
		name  string
		birth Birth
		match bool
	}{
		{name: "padded text", birth: TextBirth("05.03"), match: true},
		{name: "unpadded text", birth: TextBirth("5.3"), match: false},
		{name: "padded with year", birth: TextBirth("05.03.1984"), match: true},
		{name: "surrounding space", birth: TextBirth(" 05.03 "), match: true},
		{name: "date value", birth: DateBirth(5, time.March), match: true},
		{name: "no birth", birth: NoBirth(), match: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			src := &fakeSource{people: []Person{
				{LastName: "X", FirstName: "Y", MiddleName: "Z", Birth: tt.birth},
			}}
			got, err := NewIndex(src, logx.Nop()).Today(context.Background(), 5, time.March)
			if err != nil {
				t.Fatalf("Today: %v", err)
			}
			if (len(got) == 1) != tt.match {
				t.Fatalf("match = %v, want %v (got %v)", len(got) == 1, tt.match, got)
			}
		})
	}
}

func TestTodayPreservesSourceOrder(t *testing.T) {
	t.Parallel()
	src := &fakeSource{people: []Person{
		{LastName: "C", FirstName: "c", MiddleName: "cc", Birth: TextBirth("02.02")},
		{LastName: "A", FirstName: "a", MiddleName: "aa", Birth: TextBirth("02.02")},
		{LastName: "B", FirstName: "b", MiddleName: "bb", Birth: NoBirth()},
		{LastName: "D", FirstName: "d", MiddleName: "dd", Birth: TextBirth("02.02")},
	}}
	got, err := NewIndex(src, logx.Nop()).Today(context.Background(), 2, time.February)
	if err != nil {
		t.Fatalf("Today: %v", err)
	}
	want := []string{"C c cc", "A a aa", "D d dd"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Today = %v, want %v", got, want)
	}
}

func TestTodayEmptySource(t *testing.T) {
	t.Parallel()
	got, err := NewIndex(&fakeSource{}, logx.Nop()).Today(context.Background(), 9, time.September)
	if err != nil {
		t.Fatalf("Today: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("Today = %v, want empty", got)
	}
}

func TestTodaySourceError(t *testing.T) {
	t.Parallel()
	src := &fakeSource{err: errors.New("io")}
	if _, err := NewIndex(src, logx.Nop()).Today(context.Background(), 1, time.January); err == nil {
		t.Fatal("expected source error to propagate")
	}
}

func TestQueryKeyPadding(t *testing.T) {
	t.Parallel()
	if got := QueryKey(5, time.March); got != "05.03" {
		t.Fatalf("QueryKey(5, March) = %q, want %q", got, "05.03")
	}
	if got := QueryKey(31, time.December); got != "31.12" {
		t.Fatalf("QueryKey(31, December) = %q, want %q", got, "31.12")
	}
}
