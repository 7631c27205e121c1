// Package api adapts API Gateway proxy events to the plan orchestrator.
package api

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/aws/aws-lambda-go/events"

	"github.com/airouter/internal/llm"
	"github.com/airouter/internal/models"
	"github.com/airouter/internal/planner"
)

const (
	ServiceName = "Cloud AI Productivity Router"
	Version     = "0.1.0"

	MinGoalLength = 10
	MaxGoalLength = 500

	routeRoot           = "/"
	routeHealth         = "/health"
	routeGeneratePlan   = "/generate-plan"
	routeGeneratePlanV1 = "/api/v1/generate-plan"

	msgMalformedPlan = "Failed to generate a properly formatted plan. Please try again."
	msgGenerationErr = "Failed to generate plan. Please try again later."
)

// PlanGenerator runs one plan request end to end.
type PlanGenerator interface {
	GeneratePlan(ctx context.Context, req models.GoalRequest) (*models.Plan, error)
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// BudgetErrorResponse is the 413 body for requests rejected by the cost guard.
type BudgetErrorResponse struct {
	Error            string  `json:"error"`
	EstimatedTokens  int     `json:"estimated_tokens"`
	MaxAllowedTokens int     `json:"max_allowed_tokens"`
	EstimatedCostUSD float64 `json:"estimated_cost_usd"`
	Message          string  `json:"message"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
}

type RootResponse struct {
	Service   string            `json:"service"`
	Version   string            `json:"version"`
	MockMode  bool              `json:"mock_mode"`
	Endpoints map[string]string `json:"endpoints"`
}

type Handler struct {
	planner  PlanGenerator
	logger   *slog.Logger
	mockMode bool
}

func NewHandler(p PlanGenerator, logger *slog.Logger, mockMode bool) *Handler {
	return &Handler{planner: p, logger: logger, mockMode: mockMode}
}

// Handle is the Lambda entry point. It never returns a non-nil error; every
// failure is rendered as an HTTP response.
func (h *Handler) Handle(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	route := matchRoute(request.Path, request.RequestContext.Stage)

	switch route {
	case routeRoot:
		if request.HTTPMethod != http.MethodGet {
			return methodNotAllowed(http.MethodGet), nil
		}
		return jsonResponse(http.StatusOK, RootResponse{
			Service:  ServiceName,
			Version:  Version,
			MockMode: h.mockMode,
			Endpoints: map[string]string{
				"health":           "GET " + routeHealth,
				"generate_plan":    "POST " + routeGeneratePlan,
				"generate_plan_v1": "POST " + routeGeneratePlanV1,
			},
		}), nil

	case routeHealth:
		if request.HTTPMethod != http.MethodGet {
			return methodNotAllowed(http.MethodGet), nil
		}
		return jsonResponse(http.StatusOK, HealthResponse{
			Status:  "healthy",
			Service: ServiceName,
			Version: Version,
		}), nil

	case routeGeneratePlan:
		if request.HTTPMethod != http.MethodPost {
			return methodNotAllowed(http.MethodPost), nil
		}
		return h.generatePlan(ctx, request), nil
	}

	return createErrorResponse(http.StatusNotFound, "NOT_FOUND", "Route not found", request.Path), nil
}

func (h *Handler) generatePlan(ctx context.Context, request events.APIGatewayProxyRequest) events.APIGatewayProxyResponse {
	body := request.Body
	if request.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(body)
		if err != nil {
			return createErrorResponse(http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body encoding", err.Error())
		}
		body = string(decoded)
	}

	var req models.GoalRequest
	if err := json.Unmarshal([]byte(body), &req); err != nil {
		return createErrorResponse(http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON in request body", err.Error())
	}

	req, err := validate(req)
	if err != nil {
		return createErrorResponse(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Invalid request", err.Error())
	}

	plan, err := h.planner.GeneratePlan(ctx, req)
	if err != nil {
		return h.planError(ctx, err)
	}
	return jsonResponse(http.StatusOK, plan)
}

// planError maps orchestrator errors to responses. Internal detail stays in
// the log.
func (h *Handler) planError(ctx context.Context, err error) events.APIGatewayProxyResponse {
	var budgetErr *llm.BudgetExceededError
	if errors.As(err, &budgetErr) {
		return jsonResponse(http.StatusRequestEntityTooLarge, BudgetErrorResponse{
			Error:            budgetErr.Reason,
			EstimatedTokens:  budgetErr.EstimatedTokens,
			MaxAllowedTokens: budgetErr.MaxAllowedTokens,
			EstimatedCostUSD: budgetErr.EstimatedCostUSD,
			Message:          budgetErr.Message,
		})
	}

	if errors.Is(err, planner.ErrMalformedPlan) {
		return createErrorResponse(http.StatusInternalServerError, "GENERATION_PARSE_ERROR", msgMalformedPlan, "")
	}

	h.logger.ErrorContext(ctx, "unexpected plan generation failure", slog.String("error", err.Error()))
	return createErrorResponse(http.StatusInternalServerError, "GENERATION_ERROR", msgGenerationErr, "")
}

// validate trims the goal and context and enforces the goal length bounds.
// Context is unbounded here; oversized requests are rejected by the budget guard.
func validate(req models.GoalRequest) (models.GoalRequest, error) {
	req.Goal = strings.TrimSpace(req.Goal)
	req.Context = strings.TrimSpace(req.Context)

	n := utf8.RuneCountInString(req.Goal)
	switch {
	case n == 0:
		return req, errors.New("goal: field required")
	case n < MinGoalLength:
		return req, fmt.Errorf("goal: must be at least %d characters", MinGoalLength)
	case n > MaxGoalLength:
		return req, fmt.Errorf("goal: must be at most %d characters", MaxGoalLength)
	}
	return req, nil
}

// matchRoute resolves path to a known route. Paths may carry a stage or
// base-path prefix, so matching is done on the suffix.
func matchRoute(path, stage string) string {
	p := strings.TrimRight(path, "/")
	if p == "" || (stage != "" && p == "/"+stage) {
		return routeRoot
	}
	switch {
	case strings.HasSuffix(p, routeGeneratePlan):
		return routeGeneratePlan
	case strings.HasSuffix(p, routeHealth):
		return routeHealth
	}
	return ""
}

func methodNotAllowed(allowed string) events.APIGatewayProxyResponse {
	resp := createErrorResponse(http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", "")
	resp.Headers["Allow"] = allowed
	return resp
}

func jsonResponse(statusCode int, v any) events.APIGatewayProxyResponse {
	body, err := json.Marshal(v)
	if err != nil {
		return createErrorResponse(http.StatusInternalServerError, "SERIALIZATION_ERROR", "Failed to serialize response", "")
	}
	return events.APIGatewayProxyResponse{
		StatusCode: statusCode,
		Headers: map[string]string{
			"Content-Type": "application/json",
		},
		Body: string(body),
	}
}

func createErrorResponse(statusCode int, code, message, details string) events.APIGatewayProxyResponse {
	errorResp := ErrorResponse{
		Error:   message,
		Code:    code,
		Details: details,
	}

	body, _ := json.Marshal(errorResp)
	return events.APIGatewayProxyResponse{
		StatusCode: statusCode,
		Headers: map[string]string{
			"Content-Type": "application/json",
		},
		Body: string(body),
	}
}
