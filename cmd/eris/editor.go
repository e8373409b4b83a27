package main

import (
	"context"

	"eris/internal/config"
	"eris/internal/ipc"
	"eris/internal/library"
	"eris/internal/novel"
)

// libraryEditor applies library writes. The daemon client routes them through
// the running tracker; storeEditor writes the database directly.
type libraryEditor interface {
	AddNovel(ctx context.Context, n novel.Novel) (*novel.Novel, error)
	AddKeyword(ctx context.Context, id, keyword string) (*novel.Novel, error)
	MarkStatus(ctx context.Context, id string, status novel.Status) (*novel.Novel, error)
	Move(ctx context.Context, id string, list novel.ListStatus) (*novel.Novel, error)
	ChapterRead(ctx context.Context, id string, reading novel.Reading) (library.Commit, error)
	Remove(ctx context.Context, id string) error
}

var _ libraryEditor = (*ipc.Client)(nil)

type storeEditor struct {
	store  *library.Store
	policy novel.ReadPolicy
}

func newStoreEditor(cfg *config.Config, store *library.Store) storeEditor {
	rs := cfg.RecognitionSettings()
	return storeEditor{
		store:  store,
		policy: novel.ReadPolicy{Preference: rs.Preference, AutocompleteOngoing: rs.AutocompleteOngoing},
	}
}

func (e storeEditor) AddNovel(ctx context.Context, n novel.Novel) (*novel.Novel, error) {
	return e.store.Add(ctx, n)
}

func (e storeEditor) AddKeyword(ctx context.Context, id, keyword string) (*novel.Novel, error) {
	return e.store.AddKeyword(ctx, id, keyword)
}

func (e storeEditor) MarkStatus(ctx context.Context, id string, status novel.Status) (*novel.Novel, error) {
	return e.store.MarkStatus(ctx, id, status)
}

func (e storeEditor) Move(ctx context.Context, id string, list novel.ListStatus) (*novel.Novel, error) {
	return e.store.Move(ctx, id, list)
}

func (e storeEditor) ChapterRead(ctx context.Context, id string, reading novel.Reading) (library.Commit, error) {
	return e.store.CommitProgress(ctx, id, reading, true, e.policy)
}

func (e storeEditor) Remove(ctx context.Context, id string) error {
	return e.store.Remove(ctx, id)
}
