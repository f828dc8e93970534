package inmemdb

import (
	"context"
	"sort"

	"github.com/Nucleo-de-Educacao-Permamente-em-Saude/SIGA/core"
	"github.com/Nucleo-de-Educacao-Permamente-em-Saude/SIGA/core/event"
)

type eventRepository struct {
	db *table[event.Event]
}

var _ event.Repository = (*eventRepository)(nil) // interface compliance check

func NewEventRepository(db *DB) *eventRepository {
	return &eventRepository{db: db.events}
}

func (repo *eventRepository) CreateEvent(ctx context.Context, evt event.Event, exec ...core.DBExecutor) (event.Event, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.nextID++
	evt.ID = repo.db.nextID
	repo.db.t[evt.ID] = &evt
	return evt, nil
}

func (repo *eventRepository) QueryEvents(ctx context.Context, filter *event.QueryFilter, exec ...core.DBExecutor) ([]event.Event, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	events := make([]event.Event, 0, len(repo.db.t))
	for _, evt := range repo.db.t {
		if filter != nil {
			if filter.From != nil && evt.End.Before(*filter.From) {
				continue
			}
			if filter.To != nil && evt.Start.After(*filter.To) {
				continue
			}
		}
		events = append(events, *evt)
	}
	sort.Slice(events, func(i, j int) bool {
		if !events[i].Start.Equal(events[j].Start) {
			return events[i].Start.Before(events[j].Start)
		}
		return events[i].ID < events[j].ID
	})
	return events, nil
}

func (repo *eventRepository) GetEvent(ctx context.Context, id int, exec ...core.DBExecutor) (event.Event, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if evt, ok := repo.db.t[id]; ok {
		return *evt, nil
	}
	return event.Event{}, event.ErrNotFound
}

func (repo *eventRepository) UpdateEvent(ctx context.Context, evt event.Event, exec ...core.DBExecutor) (event.Event, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.t[evt.ID]; !ok {
		return event.Event{}, event.ErrNotFound
	}
	repo.db.t[evt.ID] = &evt
	return evt, nil
}

func (repo *eventRepository) DeleteEvent(ctx context.Context, id int, exec ...core.DBExecutor) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	delete(repo.db.t, id)
	return nil
}
