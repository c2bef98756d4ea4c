package employees

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeStore struct {
	rows map[string]Employee
}

func (f *fakeStore) WithTx(ctx context.Context, fn func(Repo) error) error {
	saved := map[string]Employee{}
	for k, v := range f.rows {
		saved[k] = v
	}
	if err := fn(f); err != nil {
		f.rows = saved
		return err
	}
	return nil
}

func (f *fakeStore) ListEmployees(ctx context.Context, activeOnly bool) ([]Employee, error) {
	out := []Employee{}
	for _, e := range f.rows {
		if !activeOnly || e.IsActive {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeStore) GetEmployee(ctx context.Context, id string) (Employee, error) {
	e, ok := f.rows[id]
	if !ok {
		return Employee{}, ErrEmployeeNotFound
	}
	return e, nil
}

func (f *fakeStore) CreateEmployee(ctx context.Context, e Employee) error {
	for _, existing := range f.rows {
		if existing.Email == e.Email {
			return ErrEmailTaken
		}
	}
	f.rows[e.ID] = e
	return nil
}

func (f *fakeStore) UpdateEmployee(ctx context.Context, e Employee) error {
	f.rows[e.ID] = e
	return nil
}

func (f *fakeStore) DeleteEmployee(ctx context.Context, id string) error {
	if _, ok := f.rows[id]; !ok {
		return ErrEmployeeNotFound
	}
	delete(f.rows, id)
	return nil
}

func TestCreateEmployeeDefaults(t *testing.T) {
	store := &fakeStore{rows: map[string]Employee{}}
	svc := NewService(store, "TRY")
	svc.now = func() time.Time { return time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC) }

	e, err := svc.Create(context.Background(), Employee{Name: " Omar ", Email: "Omar@Agency.test", StartDate: "2025-01-01"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if e.Name != "Omar" || e.Email != "omar@agency.test" || e.SalaryType != SalaryMonthly || e.SalaryCurrency != "TRY" || !e.IsActive {
		t.Fatalf("unexpected defaults %#v", e)
	}
	if _, err := svc.Create(context.Background(), Employee{Name: "Other", Email: "omar@agency.test", StartDate: "2025-01-01"}); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected email taken, got %v", err)
	}
}

func TestCreateEmployeeValidation(t *testing.T) {
	svc := NewService(&fakeStore{rows: map[string]Employee{}}, "")
	negative := -1.0
	cases := []struct {
		name string
		in   Employee
		want error
	}{
		{"missing name", Employee{Email: "a@b.c", StartDate: "2025-01-01"}, ErrInvalidEmployee},
		{"bad date", Employee{Name: "a", Email: "a@b.c", StartDate: "01/01/2025"}, ErrInvalidEmployee},
		{"negative salary", Employee{Name: "a", Email: "a@b.c", StartDate: "2025-01-01", SalaryAmount: &negative}, ErrInvalidSalary},
	}
	for _, tc := range cases {
		if _, err := svc.Create(context.Background(), tc.in); !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
}

func TestUpdateAndExists(t *testing.T) {
	store := &fakeStore{rows: map[string]Employee{
		"e1": {ID: "e1", Name: "Lina", Email: "lina@agency.test", StartDate: "2024-03-01", SalaryType: SalaryMonthly, SalaryCurrency: "USD", IsActive: true},
	}}
	svc := NewService(store, "")

	out, err := svc.Update(context.Background(), "e1", func(e *Employee) error {
		e.IsActive = false
		e.ID = "other"
		return nil
	})
	if err != nil || out.ID != "e1" || store.rows["e1"].IsActive {
		t.Fatalf("unexpected update %#v %v", out, err)
	}
	active, _ := svc.List(context.Background(), true)
	if len(active) != 0 {
		t.Fatalf("inactive employee listed as active")
	}

	ok, err := svc.Exists(context.Background(), "e1")
	if err != nil || !ok {
		t.Fatalf("expected e1 to exist: %v", err)
	}
	ok, err = svc.Exists(context.Background(), "ghost")
	if err != nil || ok {
		t.Fatalf("expected ghost to be missing: %v", err)
	}
	if err := svc.Delete(context.Background(), "ghost"); !errors.Is(err, ErrEmployeeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
