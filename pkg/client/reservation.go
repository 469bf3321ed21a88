package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	apperrors "staybook/pkg/errors"
	"staybook/pkg/logger"
	"staybook/pkg/metrics"
	"staybook/pkg/model"
	"staybook/pkg/retry"

	"github.com/go-playground/validator/v10"
)

const (
	HeaderCorrelationID = "X-Correlation-Id"

	OpHold             = "hold"
	OpConfirm          = "confirm"
	OpRelease          = "release"
	OpRecommendedRooms = "recommended_rooms"
)

// ReservationClient calls the reservations service. Every call runs under
// the configured retry policy and carries the workflow's correlation id.
type ReservationClient struct {
	httpClient *HttpClient
	policy     retry.Policy
	validate   *validator.Validate
	metrics    *metrics.Metrics
	log        *logger.Logger
}

func NewReservationClient(baseURL string, policy retry.Policy, m *metrics.Metrics, log *logger.Logger) *ReservationClient {
	return &ReservationClient{
		httpClient: NewHttpClient(baseURL),
		policy:     policy,
		validate:   validator.New(),
		metrics:    m,
		log:        log,
	}
}

type envelope struct {
	Data json.RawMessage `json:"data"`
}

func (c *ReservationClient) Hold(ctx context.Context, correlationID, requestID string, roomID int64, start, end string) (*model.ReservationLock, error) {
	path := "/api/v1/rooms/id/" + strconv.FormatInt(roomID, 10) + "/hold"
	body := model.HoldRequest{RequestID: requestID, StartDate: start, EndDate: end}
	return c.lockCall(ctx, OpHold, correlationID, requestID, path, body)
}

func (c *ReservationClient) Confirm(ctx context.Context, correlationID, requestID string) (*model.ReservationLock, error) {
	return c.lockCall(ctx, OpConfirm, correlationID, requestID, "/api/v1/reservations/confirm", model.LockRequest{RequestID: requestID})
}

func (c *ReservationClient) Release(ctx context.Context, correlationID, requestID string) (*model.ReservationLock, error) {
	return c.lockCall(ctx, OpRelease, correlationID, requestID, "/api/v1/reservations/release", model.LockRequest{RequestID: requestID})
}

func (c *ReservationClient) RecommendedRooms(ctx context.Context, correlationID string) ([]model.RoomView, error) {
	var rooms []model.RoomView

	err := c.run(ctx, OpRecommendedRooms, c.log.With(logger.KeyCorrelationID, correlationID), func(ctx context.Context) error {
		resp, err := c.httpClient.GET(ctx, "/api/v1/rooms/recommended", c.headers(correlationID))
		if err != nil {
			return err
		}
		if err := classifyStatus(resp); err != nil {
			return err
		}

		var decoded []model.RoomView
		if err := decodeData(resp, &decoded); err != nil {
			return retry.Permanent(err)
		}
		for i := range decoded {
			if err := c.validate.Struct(&decoded[i]); err != nil {
				return retry.Permanent(fmt.Errorf("invalid room in response: %w", err))
			}
		}
		rooms = decoded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rooms, nil
}

func (c *ReservationClient) lockCall(ctx context.Context, op, correlationID, requestID, path string, body any) (*model.ReservationLock, error) {
	var lock model.ReservationLock

	err := c.run(ctx, op, c.log.WithSaga(requestID, correlationID), func(ctx context.Context) error {
		resp, err := c.httpClient.POST(ctx, path, body, c.headers(correlationID))
		if err != nil {
			return err
		}
		if err := classifyStatus(resp); err != nil {
			return err
		}

		var decoded model.ReservationLock
		if err := decodeData(resp, &decoded); err != nil {
			return retry.Permanent(err)
		}
		if err := c.validate.Struct(&decoded); err != nil {
			return retry.Permanent(fmt.Errorf("invalid reservation lock in response: %w", err))
		}
		lock = decoded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &lock, nil
}

func (c *ReservationClient) run(ctx context.Context, op string, log *logger.Logger, fn retry.Func) error {
	err := c.policy.Do(ctx, fn, func(attempt int, err error) {
		if retry.IsPermanent(err) {
			c.metrics.RemoteCall(op, metrics.OutcomePermanent)
			return
		}
		c.metrics.RemoteCall(op, metrics.OutcomeRetry)
		log.Warn("Reservation call attempt failed",
			"operation", op,
			"attempt", attempt,
			"max_attempts", c.policy.MaxAttempts,
			"error", err,
		)
	})
	if err == nil {
		c.metrics.RemoteCall(op, metrics.OutcomeSuccess)
		return nil
	}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	c.metrics.RemoteCall(op, metrics.OutcomeFailure)
	return apperrors.RemoteFailure(fmt.Sprintf("reservations service %s failed", op), err)
}

func (c *ReservationClient) headers(correlationID string) map[string]string {
	return map[string]string{HeaderCorrelationID: correlationID}
}

// classifyStatus maps a holder answer onto the retry model: 4xx answers
// (except 408 and 429) are final, everything else non-2xx is retried.
func classifyStatus(resp *Response) error {
	status := resp.StatusCode
	if status >= 200 && status < 300 {
		return nil
	}

	if status >= 400 && status < 500 && status != http.StatusRequestTimeout && status != http.StatusTooManyRequests {
		return retry.Permanent(remoteAppError(resp))
	}

	return fmt.Errorf("reservations service returned %d: %s", status, GetErrorMessage(resp))
}

func remoteAppError(resp *Response) *apperrors.AppError {
	var body errorBody
	_ = resp.DecodeJSON(&body)

	message := body.Error
	if message == "" {
		message = body.Message
	}
	if message == "" {
		message = http.StatusText(resp.StatusCode)
	}

	switch body.Code {
	case apperrors.CodeDateConflict:
		return apperrors.DateConflict(message)
	case apperrors.CodeNotFound:
		return apperrors.NotFound("reservation")
	case apperrors.CodeInvalidState:
		return apperrors.InvalidState(message, resp.StatusCode)
	case apperrors.CodeInvalidInput:
		return apperrors.InvalidInput(message)
	}

	switch resp.StatusCode {
	case http.StatusNotFound:
		return apperrors.NotFound("reservation")
	case http.StatusConflict:
		return apperrors.DateConflict(message)
	case http.StatusUnprocessableEntity:
		return apperrors.InvalidState(message, resp.StatusCode)
	case http.StatusBadRequest:
		return apperrors.InvalidInput(message)
	}
	return apperrors.RemoteFailure(message, fmt.Errorf("unexpected status %d", resp.StatusCode))
}

func decodeData(resp *Response, target any) error {
	var env envelope
	if err := resp.DecodeJSON(&env); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if len(env.Data) == 0 {
		return fmt.Errorf("response has no data")
	}
	if err := json.Unmarshal(env.Data, target); err != nil {
		return fmt.Errorf("failed to decode response data: %w", err)
	}
	return nil
}
