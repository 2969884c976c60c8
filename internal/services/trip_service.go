package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	dbm "tripmate/internal/models/db_models"
	resp "tripmate/internal/models/response_models"
	"tripmate/internal/planner"
	"tripmate/internal/repositories"
	"tripmate/pkg/logger"
	"tripmate/pkg/utils"
)

type TripServiceInterface interface {
	SaveFromSession(ctx context.Context, state planner.SessionState) (*dbm.Trip, error)
	GetTrip(ctx context.Context, tripID, userID string) (*resp.TripDetailResponse, error)
	ListTrips(ctx context.Context, userID string, page, pageSize int) ([]resp.TripResponse, error)
	ShareTrip(ctx context.Context, tripID, userID, passcode string) (*resp.ShareTripResponse, error)
	GetSharedTrip(ctx context.Context, token, passcode string) (*resp.TripDetailResponse, error)
	MarkPaid(ctx context.Context, tripID, reference string) error
	Stats(ctx context.Context) (total, paid int64, top []repositories.DestinationCount, err error)
}

type TripService struct {
	tripRepo repositories.TripRepository
	now      func() time.Time
}

func NewTripService(tripRepo repositories.TripRepository) TripServiceInterface {
	return &TripService{tripRepo: tripRepo, now: time.Now}
}

// SaveFromSession stores the session's finished plan. Saving the same
// session twice updates the existing trip.
func (t *TripService) SaveFromSession(ctx context.Context, state planner.SessionState) (*dbm.Trip, error) {
	if state.Plan == nil {
		return nil, utils.ErrInvalidInput
	}
	planJSON, err := json.Marshal(state.Plan)
	if err != nil {
		return nil, fmt.Errorf("encode plan: %w", err)
	}

	slots := state.Slots
	trip, err := t.tripRepo.GetBySessionID(ctx, state.ID)
	isNew := errors.Is(err, utils.ErrTripNotFound)
	if err != nil && !isNew {
		return nil, err
	}
	if isNew {
		trip = &dbm.Trip{SessionID: state.ID, UserID: state.UserID}
	}

	trip.Title = fmt.Sprintf("%d days in %s", slots.DurationDays, state.Plan.Destination)
	trip.Destination = state.Plan.Destination
	trip.Departure = slots.DepartureLocation
	trip.StartDate = state.Plan.StartDate
	trip.DurationDays = slots.DurationDays
	trip.Travelers = slots.Travelers
	trip.Budget = slots.Budget
	trip.EstimatedTotal = state.Plan.EstimatedTotal
	trip.Pace = string(slots.Pace)
	trip.Preferences = lo.Uniq(append(append([]string{}, slots.ActivityPreferences...), slots.FoodPreferences...))
	trip.Plan = datatypes.JSON(planJSON)

	if isNew {
		err = t.tripRepo.Create(ctx, trip)
	} else {
		err = t.tripRepo.Update(ctx, trip)
	}
	if err != nil {
		return nil, err
	}
	return trip, nil
}

func (t *TripService) GetTrip(ctx context.Context, tripID, userID string) (*resp.TripDetailResponse, error) {
	trip, err := t.tripRepo.GetByID(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if trip.UserID == "" || trip.UserID != userID {
		return nil, utils.ErrForbidden
	}
	return toTripDetail(trip)
}

func (t *TripService) ListTrips(ctx context.Context, userID string, page, pageSize int) ([]resp.TripResponse, error) {
	if page < 1 {
		return nil, utils.ErrInvalidPage
	}
	if pageSize < 1 || pageSize > 100 {
		return nil, utils.ErrInvalidPageSize
	}
	if userID == "" {
		return nil, utils.ErrUnauthorized
	}
	trips, err := t.tripRepo.ListByUser(ctx, userID, page, pageSize)
	if err != nil {
		return nil, err
	}
	return lo.Map(trips, func(trip dbm.Trip, _ int) resp.TripResponse { return toTripResponse(&trip) }), nil
}

// ShareTrip issues (or rotates) a public token for the trip. A non-empty
// passcode is required later to open the shared page.
func (t *TripService) ShareTrip(ctx context.Context, tripID, userID, passcode string) (*resp.ShareTripResponse, error) {
	trip, err := t.tripRepo.GetByID(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if trip.UserID == "" || trip.UserID != userID {
		return nil, utils.ErrForbidden
	}

	token := uuid.NewString()
	trip.ShareToken = &token
	trip.SharePasscodeHash = ""
	if passcode = strings.TrimSpace(passcode); passcode != "" {
		hash, err := utils.HashPassword(passcode)
		if err != nil {
			return nil, fmt.Errorf("hash passcode: %w", err)
		}
		trip.SharePasscodeHash = hash
	}
	if err := t.tripRepo.Update(ctx, trip); err != nil {
		return nil, err
	}

	return &resp.ShareTripResponse{
		TripID:           trip.ID.String(),
		ShareToken:       token,
		PasscodeRequired: trip.SharePasscodeHash != "",
	}, nil
}

func (t *TripService) GetSharedTrip(ctx context.Context, token, passcode string) (*resp.TripDetailResponse, error) {
	if strings.TrimSpace(token) == "" {
		return nil, utils.ErrTripNotFound
	}
	trip, err := t.tripRepo.GetByShareToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if trip.SharePasscodeHash != "" {
		if err := utils.ComparePasswords(trip.SharePasscodeHash, strings.TrimSpace(passcode)); err != nil {
			return nil, utils.ErrUnauthorized
		}
	}
	return toTripDetail(trip)
}

// MarkPaid records a payment. Unknown trips are logged and acknowledged so
// the provider does not keep retrying.
func (t *TripService) MarkPaid(ctx context.Context, tripID, reference string) error {
	err := t.tripRepo.MarkPaid(ctx, tripID, reference, t.now().Unix())
	if errors.Is(err, utils.ErrTripNotFound) {
		logger.Log.Warn("payment for unknown trip", zap.String("trip_id", tripID), zap.String("reference", reference))
		return nil
	}
	return err
}

func (t *TripService) Stats(ctx context.Context) (int64, int64, []repositories.DestinationCount, error) {
	total, paid, err := t.tripRepo.Count(ctx)
	if err != nil {
		return 0, 0, nil, err
	}
	top, err := t.tripRepo.TopDestinations(ctx, 5)
	if err != nil {
		return 0, 0, nil, err
	}
	return total, paid, top, nil
}

func toTripResponse(trip *dbm.Trip) resp.TripResponse {
	return resp.TripResponse{
		ID:             trip.ID.String(),
		Title:          trip.Title,
		Destination:    trip.Destination,
		StartDate:      trip.StartDate,
		DurationDays:   trip.DurationDays,
		Travelers:      trip.Travelers,
		Budget:         trip.Budget,
		EstimatedTotal: trip.EstimatedTotal,
		Shared:         trip.ShareToken != nil,
		Paid:           trip.PaidAt != nil,
		CreatedAt:      utils.FormatRFC3339(utils.FromUnixSeconds(trip.CreatedAt)),
	}
}

func toTripDetail(trip *dbm.Trip) (*resp.TripDetailResponse, error) {
	var plan planner.ItineraryPlan
	if len(trip.Plan) > 0 {
		if err := json.Unmarshal(trip.Plan, &plan); err != nil {
			return nil, fmt.Errorf("decode plan for trip %s: %w", trip.ID, err)
		}
	}
	return &resp.TripDetailResponse{
		TripResponse: toTripResponse(trip),
		Departure:    trip.Departure,
		Pace:         trip.Pace,
		Preferences:  []string(trip.Preferences),
		Plan:         &plan,
	}, nil
}
