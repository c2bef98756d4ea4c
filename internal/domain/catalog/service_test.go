package catalog

import (
	"context"
	"errors"
	"testing"
)

type fakeStore struct {
	mains map[string]MainPackage
	subs  map[string]SubPackage
}

func newFakeStore() *fakeStore {
	return &fakeStore{mains: map[string]MainPackage{}, subs: map[string]SubPackage{}}
}

func (f *fakeStore) WithTx(ctx context.Context, fn func(Repo) error) error {
	mains := map[string]MainPackage{}
	for k, v := range f.mains {
		mains[k] = v
	}
	subs := map[string]SubPackage{}
	for k, v := range f.subs {
		subs[k] = v
	}
	if err := fn(f); err != nil {
		f.mains, f.subs = mains, subs
		return err
	}
	return nil
}

func (f *fakeStore) ListMainPackages(ctx context.Context) ([]MainPackage, error) {
	out := []MainPackage{}
	for _, p := range f.mains {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeStore) GetMainPackage(ctx context.Context, id string) (MainPackage, error) {
	p, ok := f.mains[id]
	if !ok {
		return MainPackage{}, ErrPackageNotFound
	}
	return p, nil
}

func (f *fakeStore) CreateMainPackage(ctx context.Context, p MainPackage) error {
	f.mains[p.ID] = p
	return nil
}

func (f *fakeStore) UpdateMainPackage(ctx context.Context, p MainPackage) error {
	f.mains[p.ID] = p
	return nil
}

func (f *fakeStore) DeleteMainPackage(ctx context.Context, id string) error {
	if _, ok := f.mains[id]; !ok {
		return ErrPackageNotFound
	}
	delete(f.mains, id)
	return nil
}

func (f *fakeStore) DeleteSubPackagesOf(ctx context.Context, mainPackageID string) error {
	for id, p := range f.subs {
		if p.MainPackageID == mainPackageID {
			delete(f.subs, id)
		}
	}
	return nil
}

func (f *fakeStore) ListSubPackages(ctx context.Context, mainPackageID string) ([]SubPackage, error) {
	out := []SubPackage{}
	for _, p := range f.subs {
		if mainPackageID == "" || p.MainPackageID == mainPackageID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeStore) GetSubPackage(ctx context.Context, id string) (SubPackage, error) {
	p, ok := f.subs[id]
	if !ok {
		return SubPackage{}, ErrSubPackageNotFound
	}
	return p, nil
}

func (f *fakeStore) CreateSubPackage(ctx context.Context, p SubPackage) error {
	f.subs[p.ID] = p
	return nil
}

func (f *fakeStore) UpdateSubPackage(ctx context.Context, p SubPackage) error {
	f.subs[p.ID] = p
	return nil
}

func (f *fakeStore) DeleteSubPackage(ctx context.Context, id string) error {
	if _, ok := f.subs[id]; !ok {
		return ErrSubPackageNotFound
	}
	delete(f.subs, id)
	return nil
}

func TestSubPackageValidation(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, "EUR")
	main, err := svc.CreateMainPackage(context.Background(), MainPackage{Name: "تسويق", NameEn: "Marketing"})
	if err != nil {
		t.Fatalf("create main: %v", err)
	}

	cases := []struct {
		name string
		in   SubPackage
		want error
	}{
		{"missing names", SubPackage{MainPackageID: main.ID, BillingType: BillingMonthly}, ErrNameRequired},
		{"bad billing", SubPackage{MainPackageID: main.ID, Name: "a", NameEn: "a", BillingType: "weekly"}, ErrInvalidBilling},
		{"negative price", SubPackage{MainPackageID: main.ID, Name: "a", NameEn: "a", BillingType: BillingOneTime, Price: -5}, ErrInvalidPrice},
		{"unknown main", SubPackage{MainPackageID: "ghost", Name: "a", NameEn: "a", BillingType: BillingOneTime}, ErrPackageNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.CreateSubPackage(context.Background(), tc.in); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}

	sub, err := svc.CreateSubPackage(context.Background(), SubPackage{MainPackageID: main.ID, Name: "باقة", NameEn: "Basic", BillingType: BillingMonthly, Price: 300, Currency: "usd"})
	if err != nil {
		t.Fatalf("create sub: %v", err)
	}
	if sub.Currency != "USD" || sub.Deliverables == nil {
		t.Fatalf("unexpected sub package %#v", sub)
	}
	sub2, err := svc.CreateSubPackage(context.Background(), SubPackage{MainPackageID: main.ID, Name: "x", NameEn: "x", BillingType: BillingOneTime})
	if err != nil || sub2.Currency != "EUR" {
		t.Fatalf("expected default currency, got %#v %v", sub2, err)
	}
}

func TestDeleteMainPackageRemovesSubPackages(t *testing.T) {
	store := newFakeStore()
	store.mains["m1"] = MainPackage{ID: "m1", Name: "a", NameEn: "a"}
	store.mains["m2"] = MainPackage{ID: "m2", Name: "b", NameEn: "b"}
	store.subs["s1"] = SubPackage{ID: "s1", MainPackageID: "m1", BillingType: BillingMonthly}
	store.subs["s2"] = SubPackage{ID: "s2", MainPackageID: "m2", BillingType: BillingOneTime}
	svc := NewService(store, "")

	if err := svc.DeleteMainPackage(context.Background(), "m1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok := store.subs["s1"]; ok {
		t.Fatalf("sub package of deleted main should be gone")
	}
	if _, ok := store.subs["s2"]; !ok {
		t.Fatalf("unrelated sub package removed")
	}

	if err := svc.DeleteMainPackage(context.Background(), "ghost"); !errors.Is(err, ErrPackageNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUpdateMainPackageKeepsIdentity(t *testing.T) {
	store := newFakeStore()
	store.mains["m1"] = MainPackage{ID: "m1", Name: "a", NameEn: "a", Order: 1}
	svc := NewService(store, "")
	out, err := svc.UpdateMainPackage(context.Background(), "m1", func(p *MainPackage) error {
		p.ID = "hijack"
		p.Order = 4
		return nil
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if out.ID != "m1" || store.mains["m1"].Order != 4 {
		t.Fatalf("unexpected update result %#v", out)
	}
	if _, err := svc.UpdateMainPackage(context.Background(), "m1", func(p *MainPackage) error {
		p.NameEn = " "
		return nil
	}); !errors.Is(err, ErrNameRequired) {
		t.Fatalf("expected name required, got %v", err)
	}
}
