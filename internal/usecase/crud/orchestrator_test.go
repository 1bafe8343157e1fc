package crud

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"go.uber.org/goleak"

	"github.com/kailas-cloud/colladmin/internal/domain"
	"github.com/kailas-cloud/colladmin/internal/domain/collection"
	"github.com/kailas-cloud/colladmin/internal/domain/collection/field"
	"github.com/kailas-cloud/colladmin/internal/domain/record"
	"github.com/kailas-cloud/colladmin/internal/repository/items"
	"github.com/kailas-cloud/colladmin/internal/usecase/validation"
)

// --- Mocks ---

type fakeMutator struct {
	mu          sync.Mutex
	calls       int
	lastID      string
	lastPayload map[string]any
	fail        *domain.TransportError

	started chan struct{} // receives once per call when non-nil
	gate    chan struct{} // calls block until closed when non-nil
}

func (f *fakeMutator) begin(id string, payload map[string]any) *domain.TransportError {
	f.mu.Lock()
	f.calls++
	f.lastID, f.lastPayload = id, payload
	fail, started, gate := f.fail, f.started, f.gate
	f.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if gate != nil {
		<-gate
	}
	return fail
}

func (f *fakeMutator) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func envelope(data map[string]any, terr *domain.TransportError) items.Envelope[map[string]any] {
	if terr != nil {
		return items.Envelope[map[string]any]{Message: "folded: " + terr.Message, Err: terr}
	}
	return items.Envelope[map[string]any]{Data: data, Success: true}
}

func (f *fakeMutator) Create(_ context.Context, payload map[string]any) items.Envelope[map[string]any] {
	return envelope(payload, f.begin("", payload))
}

func (f *fakeMutator) Update(_ context.Context, id string, payload map[string]any) items.Envelope[map[string]any] {
	return envelope(payload, f.begin(id, payload))
}

func (f *fakeMutator) Delete(_ context.Context, id string) items.Envelope[struct{}] {
	if terr := f.begin(id, nil); terr != nil {
		return items.Envelope[struct{}]{Message: "folded: " + terr.Message, Err: terr}
	}
	return items.Envelope[struct{}]{Success: true}
}

type refreshCounter struct {
	mu sync.Mutex
	n  int
}

func (r *refreshCounter) refresh(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.n++
	return nil
}

func (r *refreshCounter) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.n
}

// --- Helpers ---

func mustField(t *testing.T, name string, st field.SemanticType, required, primary bool) field.Descriptor {
	t.Helper()
	f, err := field.New(name, "", st, field.Constraints{Required: required}, primary)
	if err != nil {
		t.Fatalf("field.New(%q): %v", name, err)
	}
	return f
}

func usersDescriptor(t *testing.T) collection.Descriptor {
	t.Helper()
	desc, err := collection.New("users", []field.Descriptor{
		mustField(t, "id", field.UUID, false, true),
		mustField(t, "email", field.Email, true, false),
		mustField(t, "age", field.Number, false, false),
	})
	if err != nil {
		t.Fatalf("collection.New: %v", err)
	}
	return desc
}

func sampleItem(t *testing.T, desc collection.Descriptor) record.Record {
	t.Helper()
	return record.FromMap(desc, map[string]any{
		"id":    "9b2b6f1e-3c9a-4b57-9d7a-0a4c1f6f6e11",
		"email": "a@b.com",
		"age":   30.0,
	})
}

func newOrchestrator(t *testing.T) (*Orchestrator, *fakeMutator, *refreshCounter) {
	t.Helper()
	repo := &fakeMutator{}
	rc := &refreshCounter{}
	return New(repo, usersDescriptor(t), WithRefresher(rc.refresh)), repo, rc
}

// --- Transitions ---

func TestOpenCreateThenClose_ClosedWithoutItem(t *testing.T) {
	desc := usersDescriptor(t)
	item := sampleItem(t, desc)

	priors := map[string]func(o *Orchestrator){
		"closed": func(*Orchestrator) {},
		"create": func(o *Orchestrator) { o.OpenCreate() },
		"edit":   func(o *Orchestrator) { o.OpenEdit(item) },
		"view":   func(o *Orchestrator) { o.OpenView(item) },
		"delete": func(o *Orchestrator) { o.OpenDelete(item) },
	}
	for name, prior := range priors {
		t.Run(name, func(t *testing.T) {
			o := New(&fakeMutator{}, desc)
			prior(o)
			o.OpenCreate()
			if _, ok := o.State().SelectedItem(); ok {
				t.Error("Create must not carry a selected item")
			}
			o.Close()

			s := o.State()
			if s.Mode() != ModeClosed {
				t.Errorf("Mode() = %q, want closed", s.Mode())
			}
			if _, ok := s.SelectedItem(); ok {
				t.Error("Closed must not carry a selected item")
			}
			if s.IsOpen() || s.IsLoading() || s.Err() != nil {
				t.Errorf("unexpected state %+v", s)
			}
		})
	}
}

func TestOpenItemModes_SelectItem(t *testing.T) {
	desc := usersDescriptor(t)
	item := sampleItem(t, desc)
	o := New(&fakeMutator{}, desc)

	for mode, open := range map[Mode]func(record.Record){
		ModeEdit:   o.OpenEdit,
		ModeView:   o.OpenView,
		ModeDelete: o.OpenDelete,
	} {
		open(item)
		s := o.State()
		got, ok := s.SelectedItem()
		if s.Mode() != mode || !ok || got.ID() != item.ID() {
			t.Errorf("open %s: mode=%q item=%v ok=%v", mode, s.Mode(), got.ID(), ok)
		}
	}
}

func TestZeroState_IsClosed(t *testing.T) {
	var s State
	if s.Mode() != ModeClosed || s.IsOpen() {
		t.Errorf("zero State mode = %q", s.Mode())
	}
}

// --- Submissions ---

func TestSubmitCreate_RequiredEmpty_NoNetworkCall(t *testing.T) {
	for _, st := range field.SemanticTypes {
		t.Run(string(st), func(t *testing.T) {
			desc, err := collection.New("things", []field.Descriptor{
				mustField(t, "value", st, true, false),
			})
			if err != nil {
				t.Fatalf("collection.New: %v", err)
			}
			repo := &fakeMutator{}
			o := New(repo, desc)
			o.OpenCreate()

			for _, empty := range []map[string]any{{}, {"value": ""}, {"value": nil}} {
				err := o.SubmitCreate(context.Background(), empty)
				var verrs validation.Errors
				if !errors.As(err, &verrs) || !errors.Is(err, domain.ErrValidation) {
					t.Fatalf("SubmitCreate(%v) = %v, want validation errors", empty, err)
				}
			}
			if n := repo.callCount(); n != 0 {
				t.Errorf("network calls = %d, want 0", n)
			}
			s := o.State()
			if s.Mode() != ModeCreate || s.IsLoading() {
				t.Errorf("state = %q loading=%v, want create idle", s.Mode(), s.IsLoading())
			}
			if _, ok := s.FieldErrors()["value"]; !ok {
				t.Errorf("FieldErrors() = %v, want value", s.FieldErrors())
			}
		})
	}
}

func TestSubmitCreate_SuccessClosesAndRefreshes(t *testing.T) {
	o, repo, rc := newOrchestrator(t)
	o.OpenCreate()

	if err := o.SubmitCreate(context.Background(), map[string]any{"email": "a@b.com"}); err != nil {
		t.Fatalf("SubmitCreate: %v", err)
	}
	if o.State().Mode() != ModeClosed {
		t.Errorf("Mode() = %q, want closed", o.State().Mode())
	}
	if repo.callCount() != 1 || rc.count() != 1 {
		t.Errorf("calls=%d refreshes=%d, want 1/1", repo.callCount(), rc.count())
	}
}

func TestSubmitEdit_FailureStaysInEdit(t *testing.T) {
	o, repo, rc := newOrchestrator(t)
	item := sampleItem(t, o.Descriptor())
	repo.fail = domain.NewTransportError(http.StatusInternalServerError, "db down")
	o.OpenEdit(item)

	err := o.SubmitEdit(context.Background(), map[string]any{"email": "c@d.com"})
	if !errors.Is(err, domain.ErrServer) {
		t.Fatalf("SubmitEdit = %v, want server error", err)
	}
	s := o.State()
	if s.Mode() != ModeEdit || s.IsLoading() {
		t.Errorf("state = %q loading=%v", s.Mode(), s.IsLoading())
	}
	if !errors.Is(s.Err(), domain.ErrServer) || s.Message() != "folded: db down" {
		t.Errorf("Err()=%v Message()=%q", s.Err(), s.Message())
	}
	if repo.lastID != item.ID() {
		t.Errorf("updated id = %q, want %q", repo.lastID, item.ID())
	}
	if rc.count() != 0 {
		t.Error("failed mutation must not refresh")
	}
}

func TestConfirmDelete(t *testing.T) {
	o, repo, rc := newOrchestrator(t)
	item := sampleItem(t, o.Descriptor())
	o.OpenDelete(item)

	if err := o.ConfirmDelete(context.Background()); err != nil {
		t.Fatalf("ConfirmDelete: %v", err)
	}
	if repo.lastID != item.ID() || o.State().Mode() != ModeClosed || rc.count() != 1 {
		t.Errorf("id=%q mode=%q refreshes=%d", repo.lastID, o.State().Mode(), rc.count())
	}

	repo.fail = domain.NewTransportError(http.StatusNotFound, "record not found")
	o.OpenDelete(item)
	if err := o.ConfirmDelete(context.Background()); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("second ConfirmDelete = %v, want not found", err)
	}
	if o.State().Mode() != ModeDelete {
		t.Errorf("Mode() = %q, want delete", o.State().Mode())
	}
}

func TestSubmit_WrongModeRejected(t *testing.T) {
	o, repo, _ := newOrchestrator(t)
	item := sampleItem(t, o.Descriptor())

	tests := []struct {
		name   string
		open   func()
		submit func() error
	}{
		{"create while closed", func() {}, func() error {
			return o.SubmitCreate(context.Background(), map[string]any{"email": "a@b.com"})
		}},
		{"edit while creating", o.OpenCreate, func() error {
			return o.SubmitEdit(context.Background(), map[string]any{"email": "a@b.com"})
		}},
		{"delete while viewing", func() { o.OpenView(item) }, func() error {
			return o.ConfirmDelete(context.Background())
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.open()
			if err := tt.submit(); !errors.Is(err, domain.ErrInvalidTransition) {
				t.Errorf("err = %v, want ErrInvalidTransition", err)
			}
		})
	}
	if repo.callCount() != 0 {
		t.Errorf("network calls = %d, want 0", repo.callCount())
	}
}

func TestSubmitEdit_ItemWithoutIDRejected(t *testing.T) {
	o, repo, _ := newOrchestrator(t)
	o.OpenEdit(record.FromMap(o.Descriptor(), map[string]any{"email": "a@b.com"}))

	err := o.SubmitEdit(context.Background(), map[string]any{"email": "a@b.com"})
	if !errors.Is(err, domain.ErrValidation) || repo.callCount() != 0 {
		t.Errorf("err=%v calls=%d", err, repo.callCount())
	}
}

// --- Single flight ---

func TestSubmitEdit_WhileLoadingRejected(t *testing.T) {
	defer goleak.VerifyNone(t)

	o, repo, _ := newOrchestrator(t)
	repo.started = make(chan struct{}, 1)
	repo.gate = make(chan struct{})
	o.OpenEdit(sampleItem(t, o.Descriptor()))

	first := make(chan error, 1)
	go func() {
		first <- o.SubmitEdit(context.Background(), map[string]any{"email": "x@y.com"})
	}()
	<-repo.started

	if !o.State().IsLoading() {
		t.Fatal("state should be loading while the first submit is in flight")
	}
	if err := o.SubmitEdit(context.Background(), map[string]any{"email": "z@y.com"}); !errors.Is(err, domain.ErrBusy) {
		t.Errorf("second SubmitEdit = %v, want ErrBusy", err)
	}

	close(repo.gate)
	if err := <-first; err != nil {
		t.Fatalf("first SubmitEdit: %v", err)
	}
	if n := repo.callCount(); n != 1 {
		t.Errorf("Update calls = %d, want 1", n)
	}
	if repo.lastPayload["email"] != "x@y.com" {
		t.Errorf("payload = %v, want first submission", repo.lastPayload)
	}
}

func TestBusyAcrossReopen(t *testing.T) {
	defer goleak.VerifyNone(t)

	o, repo, _ := newOrchestrator(t)
	repo.started = make(chan struct{}, 1)
	repo.gate = make(chan struct{})
	o.OpenCreate()

	done := make(chan error, 1)
	go func() { done <- o.SubmitCreate(context.Background(), map[string]any{"email": "a@b.com"}) }()
	<-repo.started

	o.Close()
	o.OpenCreate()
	if !o.State().IsLoading() {
		t.Error("reopened sheet should report the in-flight mutation")
	}
	if err := o.SubmitCreate(context.Background(), map[string]any{"email": "b@b.com"}); !errors.Is(err, domain.ErrBusy) {
		t.Errorf("SubmitCreate = %v, want ErrBusy", err)
	}

	close(repo.gate)
	<-done
}

func TestLateCompletionAfterClose_OnlyClearsLoading(t *testing.T) {
	defer goleak.VerifyNone(t)

	o, repo, rc := newOrchestrator(t)
	repo.started = make(chan struct{}, 1)
	repo.gate = make(chan struct{})
	repo.fail = domain.NewTransportError(http.StatusBadGateway, "upstream")
	item := sampleItem(t, o.Descriptor())
	o.OpenEdit(item)

	done := make(chan error, 1)
	go func() { done <- o.SubmitEdit(context.Background(), map[string]any{"email": "a@b.com"}) }()
	<-repo.started

	o.OpenView(item)
	close(repo.gate)
	<-done

	s := o.State()
	if s.Mode() != ModeView || s.IsLoading() || s.Err() != nil {
		t.Errorf("state = %q loading=%v err=%v, want idle view without error", s.Mode(), s.IsLoading(), s.Err())
	}
	if rc.count() != 0 {
		t.Errorf("refreshes = %d, want 0", rc.count())
	}
}

// --- Observers ---

func TestOnChange_ReceivesSnapshots(t *testing.T) {
	o, _, _ := newOrchestrator(t)

	var modes []Mode
	var loading []bool
	o.OnChange(func(s State) {
		modes = append(modes, s.Mode())
		loading = append(loading, s.IsLoading())
	})

	o.OpenCreate()
	if err := o.SubmitCreate(context.Background(), map[string]any{"email": "a@b.com"}); err != nil {
		t.Fatalf("SubmitCreate: %v", err)
	}

	wantModes := []Mode{ModeCreate, ModeCreate, ModeClosed}
	wantLoading := []bool{false, true, false}
	for i := range wantModes {
		if i >= len(modes) || modes[i] != wantModes[i] || loading[i] != wantLoading[i] {
			t.Fatalf("notifications = %v %v, want %v %v", modes, loading, wantModes, wantLoading)
		}
	}
}

func TestFieldErrors_ReturnsCopy(t *testing.T) {
	o, _, _ := newOrchestrator(t)
	o.OpenCreate()
	_ = o.SubmitCreate(context.Background(), map[string]any{})

	fe := o.State().FieldErrors()
	delete(fe, "email")
	if _, ok := o.State().FieldErrors()["email"]; !ok {
		t.Error("mutating FieldErrors() leaked into the state")
	}
}

func TestCheckField(t *testing.T) {
	o, _, _ := newOrchestrator(t)
	if o.CheckField("email", "nope") == nil {
		t.Error("expected email error")
	}
	if err := o.CheckField("age", "42"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
