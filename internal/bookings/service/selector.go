package service

import (
	"cmp"
	"context"
	"slices"

	apperrors "staybook/pkg/errors"
	"staybook/pkg/logger"
	"staybook/pkg/model"
)

// RoomSource lists candidate rooms for auto-selection.
type RoomSource interface {
	RecommendedRooms(ctx context.Context, correlationID string) ([]model.RoomView, error)
}

// RoomSelector picks the least booked room. The ranking is advisory only:
// the holder's conflict check decides whether the room can actually be held.
type RoomSelector struct {
	source RoomSource
	log    *logger.Logger
}

func NewRoomSelector(source RoomSource, log *logger.Logger) *RoomSelector {
	return &RoomSelector{source: source, log: log}
}

// Rank orders rooms by ascending times_booked, lowest id first on ties.
// The input slice is not modified.
func Rank(rooms []model.RoomView) []model.RoomView {
	ranked := slices.Clone(rooms)
	slices.SortStableFunc(ranked, func(a, b model.RoomView) int {
		if c := cmp.Compare(a.TimesBooked, b.TimesBooked); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return ranked
}

func (s *RoomSelector) Candidates(ctx context.Context, correlationID string) ([]model.RoomView, error) {
	rooms, err := s.source.RecommendedRooms(ctx, correlationID)
	if err != nil {
		s.log.Warn("Failed to fetch candidate rooms", logger.KeyCorrelationID, correlationID, "error", err)
		return nil, apperrors.NoAvailableRoom("No room is available for auto-selection", err)
	}
	return Rank(rooms), nil
}

// Select returns the top-ranked candidate.
func (s *RoomSelector) Select(ctx context.Context, correlationID string) (model.RoomView, error) {
	ranked, err := s.Candidates(ctx, correlationID)
	if err != nil {
		return model.RoomView{}, err
	}
	if len(ranked) == 0 {
		s.log.Info("No candidate rooms returned", logger.KeyCorrelationID, correlationID)
		return model.RoomView{}, apperrors.NoAvailableRoom("No room is available for auto-selection", nil)
	}

	s.log.Debug("Room selected",
		logger.KeyCorrelationID, correlationID,
		logger.KeyRoomID, ranked[0].ID,
		"times_booked", ranked[0].TimesBooked,
		"candidates", len(ranked),
	)
	return ranked[0], nil
}
