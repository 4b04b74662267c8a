package grpc

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/med2305/mlops/internal/application/dto"
	"github.com/med2305/mlops/internal/application/usecase"
	"github.com/med2305/mlops/internal/domain/model"
	"github.com/med2305/mlops/pkg/auth"
)

// Compile-time assertion that ScoringHandler implements FraudScoringServiceServer.
var _ FraudScoringServiceServer = (*ScoringHandler)(nil)

// ScoringHandler implements the gRPC FraudScoringServiceServer interface.
type ScoringHandler struct {
	UnimplementedFraudScoringServiceServer
	predict      *usecase.PredictTransaction
	batchPredict *usecase.BatchPredict
	modelInfo    *usecase.GetModelInfo
	logger       *slog.Logger
	requireAuth  bool
}

// NewScoringHandler creates a new gRPC handler. When requireAuth is set every
// call must carry claims granting a suitable role.
func NewScoringHandler(
	predict *usecase.PredictTransaction,
	batchPredict *usecase.BatchPredict,
	modelInfo *usecase.GetModelInfo,
	requireAuth bool,
	logger *slog.Logger,
) *ScoringHandler {
	return &ScoringHandler{
		predict:      predict,
		batchPredict: batchPredict,
		modelInfo:    modelInfo,
		requireAuth:  requireAuth,
		logger:       logger,
	}
}

func (h *ScoringHandler) authorize(ctx context.Context, roles ...string) error {
	if !h.requireAuth {
		return nil
	}
	return auth.RequireRole(ctx, roles...)
}

// Predict scores a single transaction.
func (h *ScoringHandler) Predict(ctx context.Context, req *PredictRequest) (*PredictResponse, error) {
	if err := h.authorize(ctx, auth.RoleAdmin, auth.RoleScorer); err != nil {
		return nil, err
	}
	if req == nil || len(req.Transaction) == 0 {
		return nil, status.Error(codes.InvalidArgument, "transaction is required")
	}

	var record model.RawRecord
	if err := json.Unmarshal(req.Transaction, &record); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid transaction: %v", err)
	}

	resp, err := h.predict.Execute(ctx, record)
	if err != nil {
		return nil, h.toStatus(ctx, "Predict", err)
	}
	return &PredictResponse{Prediction: toPredictionMsg(resp)}, nil
}

// BatchPredict scores several transactions against one bundle.
func (h *ScoringHandler) BatchPredict(ctx context.Context, req *BatchPredictRequest) (*BatchPredictResponse, error) {
	if err := h.authorize(ctx, auth.RoleAdmin, auth.RoleScorer); err != nil {
		return nil, err
	}
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	records := make([]model.RawRecord, len(req.Transactions))
	for i, raw := range req.Transactions {
		if err := json.Unmarshal(raw, &records[i]); err != nil {
			return nil, status.Errorf(codes.InvalidArgument, "invalid transaction %d: %v", i, err)
		}
	}

	resp, err := h.batchPredict.Execute(ctx, dto.BatchPredictRequest{Transactions: records})
	if err != nil {
		return nil, h.toStatus(ctx, "BatchPredict", err)
	}

	out := &BatchPredictResponse{
		Predictions:       make([]*PredictionMsg, len(resp.Predictions)),
		TotalTransactions: int32(resp.TotalTransactions),
		FraudCount:        int32(resp.FraudCount),
		FraudPercentage:   resp.FraudPercentage,
		BatchID:           resp.BatchID.String(),
	}
	for i, p := range resp.Predictions {
		out.Predictions[i] = toPredictionMsg(p)
	}
	return out, nil
}

// GetModelInfo describes the serving bundle.
func (h *ScoringHandler) GetModelInfo(ctx context.Context, _ *GetModelInfoRequest) (*GetModelInfoResponse, error) {
	if err := h.authorize(ctx, auth.RoleAdmin, auth.RoleScorer, auth.RoleModelReader); err != nil {
		return nil, err
	}

	info, err := h.modelInfo.Execute()
	if err != nil {
		return nil, h.toStatus(ctx, "GetModelInfo", err)
	}
	return &GetModelInfoResponse{
		ModelType:           info.ModelType,
		NFeatures:           int32(info.NFeatures),
		FeatureNames:        info.FeatureNames,
		NumericFeatures:     info.NumericFeatures,
		CategoricalFeatures: info.CategoricalFeatures,
		BundleID:            info.BundleID.String(),
		CreatedAt:           timestamppb.New(info.CreatedAt),
		Threshold:           info.Threshold,
	}, nil
}

func toPredictionMsg(p dto.PredictionResponse) *PredictionMsg {
	return &PredictionMsg{
		PredictionID:     p.PredictionID.String(),
		IsFraud:          p.IsFraud,
		FraudProbability: p.FraudProbability,
		Confidence:       p.Confidence,
	}
}

// toStatus maps use case errors onto gRPC codes. Unexpected errors are
// logged and hidden from the caller.
func (h *ScoringHandler) toStatus(ctx context.Context, method string, err error) error {
	switch {
	case model.IsRequestError(err):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, model.ErrModelNotReady):
		return status.Error(codes.Unavailable, "model not loaded")
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		h.logger.ErrorContext(ctx, "grpc call failed", slog.String("method", method), slog.String("error", err.Error()))
		return status.Error(codes.Internal, "internal error")
	}
}
