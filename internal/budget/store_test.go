package budget

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"fintrack/internal/core"
)

func newStore(t *testing.T, content string) *FileStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "budgets.txt")
	if content != "" {
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return NewFileStore(path, nil)
}

var jan = core.NewPeriod(2024, time.January)

func TestLoadForPeriod(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    map[string]int64
	}{
		{"absent file", "", map[string]int64{}},
		{"filters other periods", "2024-01,Food,10000\n2023-12,Food,5000\n2024-01,Bills,300\n", map[string]int64{"Food": 10000, "Bills": 300}},
		{"duplicate key keeps last value", "2024-01,Food,10000\n2024-01,Food,20000\n", map[string]int64{"Food": 20000}},
		{"malformed lines skipped", "garbage\n2024-01,Food,abc\n2024-13,Food,1\n2024-01,Food,0\n2024-01,Health,42\n", map[string]int64{"Health": 42}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := newStore(t, tt.content).LoadForPeriod(context.Background(), jan)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for k, v := range tt.want {
				if got[k].Minor != v {
					t.Errorf("%s: got %d, want %d", k, got[k].Minor, v)
				}
			}
		})
	}
}

func TestSetCeilingReplacesInPlace(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, "2024-01,Food,10000\nnot a budget\n2024-01,Bills,300\n2024-01,Food,15000\n")

	if err := s.SetCeiling(ctx, jan, "Food", core.Money{Minor: 25000}); err != nil {
		t.Fatalf("set ceiling: %v", err)
	}
	raw, _ := os.ReadFile(s.Path())
	want := "2024-01,Food,25000\nnot a budget\n2024-01,Bills,300\n2024-01,Food,25000\n"
	if string(raw) != want {
		t.Fatalf("file content:\n%s\nwant:\n%s", raw, want)
	}
}

func TestSetCeilingAppendsNewPair(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, "")
	feb := core.NewPeriod(2024, time.February)

	if err := s.SetCeiling(ctx, jan, "Food", core.Money{Minor: 100}); err != nil {
		t.Fatal(err)
	}
	if err := s.SetCeiling(ctx, feb, "Food", core.Money{Minor: 200}); err != nil {
		t.Fatal(err)
	}
	if err := s.SetCeiling(ctx, jan, "Food", core.Money{Minor: 300}); err != nil {
		t.Fatal(err)
	}

	all, err := s.LoadAll(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 || all[0].Ceiling.Minor != 300 || all[1].Period != feb {
		t.Fatalf("unexpected budgets: %+v", all)
	}
}

func TestSetCeilingRejectsNonPositive(t *testing.T) {
	s := newStore(t, "")
	for _, v := range []int64{0, -5} {
		err := s.SetCeiling(context.Background(), jan, "Food", core.Money{Minor: v})
		if !errors.Is(err, core.ErrValidation) {
			t.Errorf("ceiling %d: expected validation error, got %v", v, err)
		}
	}
	if _, err := os.Stat(s.Path()); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("rejected ceiling must not create the file")
	}
}

func TestRewriteAll(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, "2020-01,Food,1\n")
	budgets := []core.Budget{
		{Period: jan, Category: "Food", Ceiling: core.Money{Minor: 500}},
		{Period: jan, Category: "Other", Ceiling: core.Money{Minor: 900}},
	}
	if err := s.RewriteAll(ctx, budgets); err != nil {
		t.Fatal(err)
	}
	got, err := s.LoadAll(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0] != budgets[0] || got[1] != budgets[1] {
		t.Fatalf("got %+v", got)
	}
}

func TestOverlongJunkLineIsCarriedOver(t *testing.T) {
	ctx := context.Background()
	junk := strings.Repeat("z", 70<<10)
	s := newStore(t, "2024-01,Food,10000\n"+junk+"\n")

	got, err := s.LoadForPeriod(ctx, jan)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 1 || got["Food"].Minor != 10000 {
		t.Fatalf("unexpected ceilings: %v", got)
	}

	if err := s.SetCeiling(ctx, jan, "Bills", core.Money{Minor: 500}); err != nil {
		t.Fatalf("set ceiling: %v", err)
	}
	raw, _ := os.ReadFile(s.Path())
	want := "2024-01,Food,10000\n" + junk + "\n2024-01,Bills,500\n"
	if string(raw) != want {
		t.Fatalf("junk line not preserved, file is %d bytes", len(raw))
	}
}
