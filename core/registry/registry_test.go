package registry

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/artpar/structure/core/schema"
)

// Helper function to create a simple test definition
func makeTestDefinition(t *testing.T, name string) *schema.Definition {
	t.Helper()
	def, err := schema.Define(name, func(b *schema.Builder) {
		b.Attribute("id", schema.String)
		b.Attribute("name", schema.String)
	})
	if err != nil {
		t.Fatalf("Define(%q) error = %v", name, err)
	}
	return def
}

func TestNew(t *testing.T) {
	r := New()
	if r == nil {
		t.Fatal("New() returned nil")
	}
	if r.defs == nil {
		t.Error("defs map not initialized")
	}
	if r.Len() != 0 {
		t.Errorf("Len() = %d, want 0", r.Len())
	}
}

func TestRegistry_Register(t *testing.T) {
	r := New()
	def := makeTestDefinition(t, "crm.User")

	if err := r.Register(def); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	got, ok := r.Lookup("crm.User")
	if !ok {
		t.Fatal("Lookup() should find registered definition")
	}
	if got != def {
		t.Error("Lookup() returned a different definition")
	}
}

func TestRegistry_Register_DuplicateName(t *testing.T) {
	r := New()

	if err := r.Register(makeTestDefinition(t, "crm.User")); err != nil {
		t.Fatalf("First Register() error = %v", err)
	}

	err := r.Register(makeTestDefinition(t, "crm.User"))
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("Second Register() error = %v, want ConflictError", err)
	}
	if got := err.Error(); got != `schema "crm.User" already registered` {
		t.Errorf("Error() = %q", got)
	}
}

func TestRegistry_Register_Anonymous(t *testing.T) {
	r := New()
	if err := r.Register(makeTestDefinition(t, "")); err == nil {
		t.Error("Register() should reject anonymous definitions")
	}
}

func TestRegistry_RegisterAll_Nil(t *testing.T) {
	r := New()
	err := r.RegisterAll(makeTestDefinition(t, "a.Fresh"), nil)
	if err == nil || !strings.Contains(err.Error(), "nil definition") {
		t.Fatalf("RegisterAll() error = %v, want nil definition error", err)
	}
	if _, ok := r.Lookup("a.Fresh"); ok {
		t.Error("RegisterAll() should register nothing when a definition is nil")
	}
	if err := r.Register(nil); err == nil {
		t.Error("Register(nil) should fail")
	}
}

func TestRegistry_RegisterAll_Atomic(t *testing.T) {
	r := New()
	if err := r.Register(makeTestDefinition(t, "b.Taken")); err != nil {
		t.Fatal(err)
	}

	err := r.RegisterAll(
		makeTestDefinition(t, "a.Fresh"),
		makeTestDefinition(t, "b.Taken"),
		makeTestDefinition(t, "c.Twice"),
		makeTestDefinition(t, "c.Twice"),
	)

	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("RegisterAll() error = %v, want ConflictError", err)
	}
	if got := strings.Join(conflict.Names, ","); got != "b.Taken,c.Twice" {
		t.Errorf("conflicts = %q, want b.Taken,c.Twice", got)
	}
	if _, ok := r.Lookup("a.Fresh"); ok {
		t.Error("RegisterAll() should register nothing on conflict")
	}
	if !strings.Contains(err.Error(), "schemas already registered") {
		t.Errorf("Error() = %q", err)
	}
}

func TestRegistry_Unregister(t *testing.T) {
	r := New()
	if err := r.Register(makeTestDefinition(t, "crm.User")); err != nil {
		t.Fatal(err)
	}

	if err := r.Unregister("crm.User"); err != nil {
		t.Fatalf("Unregister() error = %v", err)
	}
	if _, ok := r.Lookup("crm.User"); ok {
		t.Error("Lookup() should not find unregistered definition")
	}
	if err := r.Unregister("crm.User"); err == nil {
		t.Error("Unregister() of unknown name should fail")
	}
}

func TestRegistry_Get(t *testing.T) {
	r := New()
	if err := r.Register(makeTestDefinition(t, "crm.User")); err != nil {
		t.Fatal(err)
	}

	if _, err := r.Get("crm.User"); err != nil {
		t.Errorf("Get() error = %v", err)
	}

	_, err := r.Get("user")
	if err == nil || !strings.Contains(err.Error(), "did you mean crm.User?") {
		t.Errorf("Get(user) error = %v, want suggestion", err)
	}

	byShort, err := r.Get("User")
	if err != nil || byShort.Name() != "crm.User" {
		t.Errorf("Get(User) = %v, %v, want crm.User", byShort, err)
	}

	if err := r.Register(makeTestDefinition(t, "auth.User")); err != nil {
		t.Fatal(err)
	}
	_, err = r.Get("User")
	if err == nil || !strings.Contains(err.Error(), "did you mean auth.User, crm.User?") {
		t.Errorf("Get(User) error = %v, want ambiguity", err)
	}

	_, err = r.Get("Invoice")
	if err == nil || strings.Contains(err.Error(), "did you mean") {
		t.Errorf("Get(Invoice) error = %v, want plain not-registered error", err)
	}
}

func TestRegistry_ListAndNames(t *testing.T) {
	r := New()
	for _, name := range []string{"z.Last", "a.First", "m.Middle"} {
		if err := r.Register(makeTestDefinition(t, name)); err != nil {
			t.Fatal(err)
		}
	}

	want := "a.First,m.Middle,z.Last"
	if got := strings.Join(r.Names(), ","); got != want {
		t.Errorf("Names() = %q, want %q", got, want)
	}

	var listed []string
	for _, def := range r.List() {
		listed = append(listed, def.Name())
	}
	if got := strings.Join(listed, ","); got != want {
		t.Errorf("List() = %q, want %q", got, want)
	}
}

func TestRegistry_DefineResolvesThroughRegistry(t *testing.T) {
	r := New()

	order, err := r.Define("shop.Order", func(b *schema.Builder) {
		b.Attribute("id", schema.Int)
		b.Attribute("customer", schema.Ref("Customer"))
		b.Attribute("items", schema.ArrayOf(schema.Ref("OrderItem")), schema.Default([]any{}))
	})
	if err != nil {
		t.Fatalf("Define(Order) error = %v", err)
	}

	// referenced definitions may be registered after the referrer
	if _, err := r.Define("shop.Customer", func(b *schema.Builder) {
		b.Attribute("name", schema.String)
		b.Attribute("orders", schema.ArrayOf(schema.Ref("Order")), schema.Default([]any{}))
	}); err != nil {
		t.Fatalf("Define(Customer) error = %v", err)
	}
	if _, err := r.Define("shop.OrderItem", func(b *schema.Builder) {
		b.Attribute("sku", schema.String)
	}); err != nil {
		t.Fatalf("Define(OrderItem) error = %v", err)
	}

	rec, err := order.Parse(map[string]any{
		"id":       1,
		"customer": map[string]any{"name": "Ada", "orders": []any{map[string]any{"id": 2, "customer": nil}}},
		"items":    []any{map[string]any{"sku": "A1"}},
	})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if got := rec.GetRecord("customer").Definition().Name(); got != "shop.Customer" {
		t.Errorf("customer schema = %q", got)
	}
	if got := rec.GetRecord("customer").GetRecords("orders")[0].Definition(); got != order {
		t.Error("circular reference should resolve back to Order")
	}

	if _, err := r.Define("shop.Order", nil); err == nil {
		t.Error("Define() of an existing name should fail")
	}
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	r := New()
	defs := make([]*schema.Definition, 10)
	for i := range defs {
		defs[i] = makeTestDefinition(t, "n.S"+string(rune('a'+i)))
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_ = r.Register(defs[i])
		}(i)
		go func() {
			defer wg.Done()
			_ = r.Names()
			_, _ = r.Lookup("n.Sa")
		}()
	}
	wg.Wait()

	if r.Len() != 10 {
		t.Errorf("Len() = %d, want 10", r.Len())
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"order.yaml": `
schema: shop.Order
attributes:
  id: int
  customer: { type: ref, to: Customer }
`,
		"customer.yaml": `
schema: shop.Customer
attributes:
  name: string
`,
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	r, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir() error = %v", err)
	}
	if got := strings.Join(r.Names(), ","); got != "shop.Customer,shop.Order" {
		t.Errorf("Names() = %q", got)
	}

	order, _ := r.Lookup("shop.Order")
	rec, err := order.Parse(map[string]any{"id": "4", "customer": map[string]any{"name": "Lin"}})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if rec.GetRecord("customer").GetString("name") != "Lin" {
		t.Errorf("record = %v", rec)
	}

	dup := "schema: shop.Order\nattributes:\n  id: int\n"
	if err := os.WriteFile(filepath.Join(dir, "zdup.yaml"), []byte(dup), 0o644); err != nil {
		t.Fatal(err)
	}
	var conflict *ConflictError
	if _, err := LoadDir(dir); !errors.As(err, &conflict) {
		t.Errorf("LoadDir() error = %v, want ConflictError", err)
	}
}
