package grpc

// proto.go is the hand-maintained counterpart of fraudml/v1/scoring.proto.
// Messages travel with the JSON codec registered in json_codec.go.

import (
	"context"
	"encoding/json"

	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/timestamppb"
)

const serviceName = "fraudml.v1.FraudScoringService"

// Full method names, as seen by interceptors.
const (
	MethodPredict      = "/" + serviceName + "/Predict"
	MethodBatchPredict = "/" + serviceName + "/BatchPredict"
	MethodGetModelInfo = "/" + serviceName + "/GetModelInfo"
)

// PredictRequest carries one raw transaction as a JSON object.
type PredictRequest struct {
	Transaction json.RawMessage `json:"transaction"`
}

// PredictionMsg is one scored transaction.
type PredictionMsg struct {
	PredictionID     string  `json:"prediction_id"`
	IsFraud          bool    `json:"is_fraud"`
	FraudProbability float64 `json:"fraud_probability"`
	Confidence       string  `json:"confidence"`
}

// PredictResponse is the reply to Predict.
type PredictResponse struct {
	Prediction *PredictionMsg `json:"prediction"`
}

// BatchPredictRequest carries raw transactions as JSON objects.
type BatchPredictRequest struct {
	Transactions []json.RawMessage `json:"transactions"`
}

// BatchPredictResponse is the reply to BatchPredict.
type BatchPredictResponse struct {
	Predictions       []*PredictionMsg `json:"predictions"`
	TotalTransactions int32            `json:"total_transactions"`
	FraudCount        int32            `json:"fraud_count"`
	FraudPercentage   float64          `json:"fraud_percentage"`
	BatchID           string           `json:"batch_id"`
}

// GetModelInfoRequest is empty.
type GetModelInfoRequest struct{}

// GetModelInfoResponse describes the serving bundle.
type GetModelInfoResponse struct {
	ModelType           string                 `json:"model_type"`
	NFeatures           int32                  `json:"n_features"`
	FeatureNames        []string               `json:"feature_names"`
	NumericFeatures     []string               `json:"numeric_features"`
	CategoricalFeatures []string               `json:"categorical_features"`
	BundleID            string                 `json:"bundle_id"`
	CreatedAt           *timestamppb.Timestamp `json:"created_at"`
	Threshold           float64                `json:"threshold"`
}

// FraudScoringServiceServer is the server API for FraudScoringService.
type FraudScoringServiceServer interface {
	Predict(context.Context, *PredictRequest) (*PredictResponse, error)
	BatchPredict(context.Context, *BatchPredictRequest) (*BatchPredictResponse, error)
	GetModelInfo(context.Context, *GetModelInfoRequest) (*GetModelInfoResponse, error)
	mustEmbedUnimplementedFraudScoringServiceServer()
}

// UnimplementedFraudScoringServiceServer provides forward-compatible default implementations.
type UnimplementedFraudScoringServiceServer struct{}

func (UnimplementedFraudScoringServiceServer) Predict(context.Context, *PredictRequest) (*PredictResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Predict not implemented")
}
func (UnimplementedFraudScoringServiceServer) BatchPredict(context.Context, *BatchPredictRequest) (*BatchPredictResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method BatchPredict not implemented")
}
func (UnimplementedFraudScoringServiceServer) GetModelInfo(context.Context, *GetModelInfoRequest) (*GetModelInfoResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method GetModelInfo not implemented")
}
func (UnimplementedFraudScoringServiceServer) mustEmbedUnimplementedFraudScoringServiceServer() {}

// RegisterFraudScoringServiceServer registers srv with s.
func RegisterFraudScoringServiceServer(s grpclib.ServiceRegistrar, srv FraudScoringServiceServer) {
	s.RegisterService(&fraudScoringServiceDesc, srv)
}

var fraudScoringServiceDesc = grpclib.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*FraudScoringServiceServer)(nil),
	Methods: []grpclib.MethodDesc{
		{MethodName: "Predict", Handler: predictHandler},
		{MethodName: "BatchPredict", Handler: batchPredictHandler},
		{MethodName: "GetModelInfo", Handler: getModelInfoHandler},
	},
	Streams:  []grpclib.StreamDesc{},
	Metadata: "fraudml/v1/scoring.proto",
}

func predictHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpclib.UnaryServerInterceptor) (any, error) {
	in := new(PredictRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(FraudScoringServiceServer).Predict(ctx, in)
	}
	info := &grpclib.UnaryServerInfo{Server: srv, FullMethod: MethodPredict}
	return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
		return srv.(FraudScoringServiceServer).Predict(ctx, req.(*PredictRequest))
	})
}

func batchPredictHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpclib.UnaryServerInterceptor) (any, error) {
	in := new(BatchPredictRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(FraudScoringServiceServer).BatchPredict(ctx, in)
	}
	info := &grpclib.UnaryServerInfo{Server: srv, FullMethod: MethodBatchPredict}
	return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
		return srv.(FraudScoringServiceServer).BatchPredict(ctx, req.(*BatchPredictRequest))
	})
}

func getModelInfoHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpclib.UnaryServerInterceptor) (any, error) {
	in := new(GetModelInfoRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(FraudScoringServiceServer).GetModelInfo(ctx, in)
	}
	info := &grpclib.UnaryServerInfo{Server: srv, FullMethod: MethodGetModelInfo}
	return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
		return srv.(FraudScoringServiceServer).GetModelInfo(ctx, req.(*GetModelInfoRequest))
	})
}

// FraudScoringServiceClient is the client API for FraudScoringService.
type FraudScoringServiceClient struct {
	cc grpclib.ClientConnInterface
}

// NewFraudScoringServiceClient returns a client that speaks the JSON codec over cc.
func NewFraudScoringServiceClient(cc grpclib.ClientConnInterface) *FraudScoringServiceClient {
	return &FraudScoringServiceClient{cc: cc}
}

func (c *FraudScoringServiceClient) Predict(ctx context.Context, in *PredictRequest, opts ...grpclib.CallOption) (*PredictResponse, error) {
	out := new(PredictResponse)
	if err := c.cc.Invoke(ctx, MethodPredict, in, out, append(opts, grpclib.CallContentSubtype(CodecName))...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *FraudScoringServiceClient) BatchPredict(ctx context.Context, in *BatchPredictRequest, opts ...grpclib.CallOption) (*BatchPredictResponse, error) {
	out := new(BatchPredictResponse)
	if err := c.cc.Invoke(ctx, MethodBatchPredict, in, out, append(opts, grpclib.CallContentSubtype(CodecName))...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *FraudScoringServiceClient) GetModelInfo(ctx context.Context, in *GetModelInfoRequest, opts ...grpclib.CallOption) (*GetModelInfoResponse, error) {
	out := new(GetModelInfoResponse)
	if err := c.cc.Invoke(ctx, MethodGetModelInfo, in, out, append(opts, grpclib.CallContentSubtype(CodecName))...); err != nil {
		return nil, err
	}
	return out, nil
}
