package service

import (
	"context"
	"sync"

	"staybook/internal/reservations/repository"
	"staybook/pkg/config"
	apperrors "staybook/pkg/errors"
	"staybook/pkg/model"
)

const DefaultPopularLimit = 10

type RoomService interface {
	List(ctx context.Context, limit int, offset int64) ([]*model.Room, int64, error)
	Recommended(ctx context.Context) ([]model.RoomView, error)
	Popular(ctx context.Context, limit int) ([]model.RoomView, error)
}

type roomService struct {
	repo repository.RoomRepository
	cfg  *config.Config
}

func NewRoomService(repo repository.RoomRepository, cfg *config.Config) RoomService {
	return &roomService{
		repo: repo,
		cfg:  cfg,
	}
}

func (s *roomService) List(ctx context.Context, limit int, offset int64) ([]*model.Room, int64, error) {
	var count int64
	var rooms []*model.Room
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx)
	}()

	go func() {
		defer wg.Done()
		rooms, errFind = s.repo.FindAll(ctx, limit, offset)
	}()

	wg.Wait()
	if errCount != nil {
		s.cfg.Log.Error("Failed to count rooms", "error", errCount)
		return nil, 0, apperrors.Internal("Failed to count rooms", errCount)
	}
	if errFind != nil {
		s.cfg.Log.Error("Failed to list rooms", "error", errFind)
		return nil, 0, apperrors.Internal("Failed to retrieve rooms", errFind)
	}

	return rooms, count, nil
}

// Recommended lists available rooms, least booked first. Date occupancy is
// not considered; the hold decides.
func (s *roomService) Recommended(ctx context.Context) ([]model.RoomView, error) {
	rooms, err := s.repo.FindAvailable(ctx)
	if err != nil {
		s.cfg.Log.Error("Failed to list recommended rooms", "error", err)
		return nil, apperrors.Internal("Failed to retrieve recommended rooms", err)
	}
	return views(rooms), nil
}

func (s *roomService) Popular(ctx context.Context, limit int) ([]model.RoomView, error) {
	if limit <= 0 {
		limit = DefaultPopularLimit
	}
	rooms, err := s.repo.FindPopular(ctx, limit)
	if err != nil {
		s.cfg.Log.Error("Failed to list popular rooms", "error", err)
		return nil, apperrors.Internal("Failed to retrieve popular rooms", err)
	}
	return views(rooms), nil
}

func views(rooms []*model.Room) []model.RoomView {
	out := make([]model.RoomView, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, r.View())
	}
	return out
}
