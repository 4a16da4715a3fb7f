package services

import (
	"context"
	"errors"
	"testing"

	"reyes/internal/core"
)

type fakeStore struct {
	inserted []core.Project
	updated  []core.Project
	deleted  []int64
	version  int64
	err      error
	closed   bool
}

func (f *fakeStore) InsertProject(_ context.Context, p core.Project) (core.Project, error) {
	if f.err != nil {
		return core.Project{}, f.err
	}
	p.ID = int64(len(f.inserted) + 1)
	f.inserted = append(f.inserted, p)
	return p, nil
}

func (f *fakeStore) UpdateProject(_ context.Context, p core.Project) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.updated = append(f.updated, p)
	return f.version, nil
}

func (f *fakeStore) DeleteProject(_ context.Context, id int64) error {
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeStore) Close() error {
	f.closed = true
	return nil
}

type fakePublisher struct {
	syncs   []int64
	deletes []int64
	err     error
	closed  bool
}

func (f *fakePublisher) PublishProjectSync(_ context.Context, id, _ int64) error {
	if f.err != nil {
		return f.err
	}
	f.syncs = append(f.syncs, id)
	return nil
}

func (f *fakePublisher) PublishProjectDelete(_ context.Context, id int64) error {
	if f.err != nil {
		return f.err
	}
	f.deletes = append(f.deletes, id)
	return nil
}

func (f *fakePublisher) Close() error {
	f.closed = true
	return nil
}

func validProject() core.Project {
	price := int64(250_000)
	return core.Project{
		Client:  "Araya",
		Service: "Cápsulas",
		Price:   &price,
		Payment: core.PaymentAwaiting,
	}
}

func TestCreateProject_PublishesSync(t *testing.T) {
	store := &fakeStore{}
	pub := &fakePublisher{}
	svc := NewProjectService(store, pub)

	created, err := svc.CreateProject(context.Background(), validProject())
	if err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}
	if created.ID != 1 {
		t.Errorf("CreateProject() ID = %d, want 1", created.ID)
	}
	if len(pub.syncs) != 1 || pub.syncs[0] != 1 {
		t.Errorf("expected one sync message for id 1, got %v", pub.syncs)
	}
}

func TestCreateProject_BrokerDownStillSucceeds(t *testing.T) {
	store := &fakeStore{}
	pub := &fakePublisher{err: errors.New("connection refused")}
	svc := NewProjectService(store, pub)

	if _, err := svc.CreateProject(context.Background(), validProject()); err != nil {
		t.Fatalf("CreateProject() should not fail on publish error, got %v", err)
	}
	if len(store.inserted) != 1 {
		t.Errorf("record should be saved locally, inserted = %d", len(store.inserted))
	}
}

func TestCreateProject_NilPublisher(t *testing.T) {
	store := &fakeStore{}
	svc := NewProjectService(store, nil)

	if _, err := svc.CreateProject(context.Background(), validProject()); err != nil {
		t.Fatalf("CreateProject() without publisher error = %v", err)
	}
}

func TestCreateProject_RejectsInvalid(t *testing.T) {
	store := &fakeStore{}
	svc := NewProjectService(store, &fakePublisher{})

	bad := validProject()
	bad.Client = ""
	if _, err := svc.CreateProject(context.Background(), bad); err == nil {
		t.Fatal("CreateProject() should reject an invalid record")
	}
	if len(store.inserted) != 0 {
		t.Error("invalid record must not reach storage")
	}
}

func TestUpdateProject_PublishesBumpedVersion(t *testing.T) {
	store := &fakeStore{version: 3}
	pub := &fakePublisher{}
	svc := NewProjectService(store, pub)

	p := validProject()
	p.ID = 7
	if err := svc.UpdateProject(context.Background(), p); err != nil {
		t.Fatalf("UpdateProject() error = %v", err)
	}
	if len(store.updated) != 1 {
		t.Fatalf("expected one update, got %d", len(store.updated))
	}
	if len(pub.syncs) != 1 || pub.syncs[0] != 7 {
		t.Errorf("expected sync message for id 7, got %v", pub.syncs)
	}
}

func TestUpdateProject_StorageErrorPropagates(t *testing.T) {
	store := &fakeStore{err: errors.New("disk full")}
	pub := &fakePublisher{}
	svc := NewProjectService(store, pub)

	p := validProject()
	p.ID = 7
	if err := svc.UpdateProject(context.Background(), p); err == nil {
		t.Fatal("UpdateProject() should propagate storage errors")
	}
	if len(pub.syncs) != 0 {
		t.Error("no sync message should be published on storage failure")
	}
}

func TestDeleteProject_PublishesDelete(t *testing.T) {
	store := &fakeStore{}
	pub := &fakePublisher{}
	svc := NewProjectService(store, pub)

	if err := svc.DeleteProject(context.Background(), 42); err != nil {
		t.Fatalf("DeleteProject() error = %v", err)
	}
	if len(store.deleted) != 1 || store.deleted[0] != 42 {
		t.Errorf("expected delete of id 42, got %v", store.deleted)
	}
	if len(pub.deletes) != 1 || pub.deletes[0] != 42 {
		t.Errorf("expected delete message for id 42, got %v", pub.deletes)
	}
}

func TestClose_ClosesBoth(t *testing.T) {
	store := &fakeStore{}
	pub := &fakePublisher{}
	svc := NewProjectService(store, pub)

	if err := svc.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !store.closed || !pub.closed {
		t.Errorf("Close() should close storage and publisher, got %v/%v", store.closed, pub.closed)
	}
}
