package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/owwnwrrght/ledgex/internal/middleware"
	"github.com/owwnwrrght/ledgex/internal/models"
	"github.com/owwnwrrght/ledgex/internal/storage"
)

// GroupService manages groups and their membership.
type GroupService struct {
	store storage.Store
}

// NewGroupService creates a new GroupService with the given storage backend.
func NewGroupService(store storage.Store) *GroupService {
	return &GroupService{store: store}
}

// CreateGroup creates a new group. The authenticated creator becomes the
// group admin and its first member.
func (s *GroupService) CreateGroup(ctx context.Context, name, currency string, members []models.Person) (*models.Group, error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return nil, ErrUnauthenticated
	}
	if name == "" {
		return nil, fmt.Errorf("%w: group name required", ErrInvalidInput)
	}
	if currency == "" {
		return nil, fmt.Errorf("%w: base currency required", ErrInvalidInput)
	}

	slog.Info("CreateGroup request received",
		"name", name,
		"currency", currency,
		"members_count", len(members),
	)

	// The creator is always a member, listed first.
	all := make([]models.Person, 0, len(members)+1)
	all = append(all, models.Person{ID: userID, Name: middleware.GetEmail(ctx)})
	for _, m := range members {
		if m.ID != userID {
			all = append(all, m)
		}
	}

	group := &models.Group{
		Name:      name,
		Currency:  currency,
		Members:   all,
		CreatedBy: userID,
	}
	if err := s.store.CreateGroup(ctx, group); err != nil {
		slog.Error("CreateGroup failed", "error", err)
		return nil, err
	}

	slog.Info("Group created", "group_id", group.ID)
	return group, nil
}

// GetGroup retrieves a group. The caller must be a member.
func (s *GroupService) GetGroup(ctx context.Context, groupID string) (*models.Group, error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return nil, ErrUnauthenticated
	}

	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if _, ok := group.Member(userID); !ok {
		return nil, fmt.Errorf("%w: you must be a member of this group", ErrPermissionDenied)
	}
	return group, nil
}

// AddMembers appends people not already in the group. Any member may add.
func (s *GroupService) AddMembers(ctx context.Context, groupID string, members []models.Person) (*models.Group, error) {
	group, err := s.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	var newOnes []models.Person
	for _, m := range members {
		if _, ok := group.Member(m.ID); m.ID == "" || !ok {
			newOnes = append(newOnes, m)
		}
	}
	if len(newOnes) == 0 {
		return group, nil
	}

	if err := s.store.AddGroupMembers(ctx, groupID, newOnes); err != nil {
		slog.Error("AddMembers failed", "group_id", groupID, "error", err)
		return nil, err
	}
	slog.Info("Members added to group", "group_id", groupID, "count", len(newOnes))

	return s.store.GetGroup(ctx, groupID)
}

// RemoveMember removes a person from the group. Only the admin may remove
// members. Historical expenses referencing the person stay; the balance
// aggregator skips them.
func (s *GroupService) RemoveMember(ctx context.Context, groupID, personID string) error {
	group, err := s.GetGroup(ctx, groupID)
	if err != nil {
		return err
	}
	userID := middleware.GetUserID(ctx)
	if userID != group.CreatedBy {
		return fmt.Errorf("%w: only the group admin may remove members", ErrPermissionDenied)
	}
	if personID == group.CreatedBy {
		return fmt.Errorf("%w: the admin cannot be removed", ErrInvalidInput)
	}

	if err := s.store.RemoveGroupMember(ctx, groupID, personID); err != nil {
		slog.Error("RemoveMember failed", "group_id", groupID, "person_id", personID, "error", err)
		return err
	}
	slog.Info("Member removed from group", "group_id", groupID, "person_id", personID)
	return nil
}
