package stores

import (
	"context"
	"errors"
	"fmt"
)

// TicketStore caches the tickets of the last fetched version. Creates and
// updates for another version reach the API but leave the cache alone.
type TicketStore struct {
	api API
	cache[Ticket]
	projectID ID
	versionID ID
}

func NewTicketStore(api API) (*TicketStore, error) {
	if api == nil {
		return nil, errors.New("[stores.NewTicketStore] api is required")
	}
	return &TicketStore{api: api}, nil
}

func (s *TicketStore) State() State[Ticket] {
	return s.snapshot()
}

// Scope is the project and version the cached tickets belong to.
func (s *TicketStore) Scope() (projectID, versionID ID) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.projectID, s.versionID
}

func (s *TicketStore) inScope(projectID, versionID ID) bool {
	cachedProject, cachedVersion := s.Scope()
	return cachedProject == projectID && cachedVersion == versionID
}

func (s *TicketStore) FetchTickets(ctx context.Context, projectID, versionID ID) error {
	s.begin()
	defer s.settle()

	res, err := s.api.Get(ctx, ticketsPath(projectID, versionID), nil)
	if err == nil {
		var tickets []Ticket
		if tickets, err = normalizeTickets(res); err == nil {
			s.mu.Lock()
			s.items = tickets
			s.projectID, s.versionID = projectID, versionID
			s.mu.Unlock()
			return nil
		}
	}
	s.fail("tickets", err, fmt.Sprintf("Failed to fetch tickets for version %s.", versionID))
	return err
}

func (s *TicketStore) CreateTicket(ctx context.Context, projectID, versionID ID, input TicketInput) (Ticket, error) {
	s.begin()
	defer s.settle()

	res, err := s.api.Post(ctx, ticketsPath(projectID, versionID), input)
	if err != nil {
		s.fail("tickets", err, "Failed to create ticket.")
		return Ticket{}, err
	}
	ticket, ok, err := decodeOne[Ticket](res)
	if err != nil {
		s.fail("tickets", err, "Failed to create ticket.")
		return Ticket{}, err
	}
	if ok && s.inScope(projectID, versionID) {
		s.append(ticket)
	}
	return ticket, nil
}

func (s *TicketStore) UpdateTicket(ctx context.Context, projectID, versionID, ticketID ID, update TicketUpdate) (Ticket, error) {
	s.begin()
	defer s.settle()

	res, err := s.api.Put(ctx, ticketsPath(projectID, versionID)+"/"+escape(ticketID), update)
	if err != nil {
		s.fail("tickets", err, fmt.Sprintf("Failed to update ticket %s.", ticketID))
		return Ticket{}, err
	}
	ticket, ok, err := decodeOne[Ticket](res)
	if err != nil {
		s.fail("tickets", err, fmt.Sprintf("Failed to update ticket %s.", ticketID))
		return Ticket{}, err
	}
	if !ok || !s.inScope(projectID, versionID) {
		return ticket, nil
	}
	if update.Version != nil && ID(*update.Version) != versionID {
		s.remove(ticketID)
	} else {
		s.splice(ticketID, ticket)
	}
	return ticket, nil
}
