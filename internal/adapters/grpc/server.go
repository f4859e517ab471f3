package grpc

import (
	"context"
	"errors"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/viralforge/storefront/internal/application"
	"github.com/viralforge/storefront/internal/domain"
)

const serviceName = "viralforge.storefront.v1.StorefrontInternalService"

// StorefrontInternalService exposes read-only purchase lookups to sibling services.
type StorefrontInternalService interface {
	CheckDownloadAccess(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetCheckoutStatus(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type StorefrontQueries interface {
	DownloadStatus(ctx context.Context, token string) (application.DownloadStatusResponse, error)
	CheckoutStatus(ctx context.Context, sessionID string) (application.CheckoutStatusResponse, error)
}

type StorefrontInternalServer struct {
	service StorefrontQueries
}

func NewStorefrontInternalServer(service StorefrontQueries) *StorefrontInternalServer {
	return &StorefrontInternalServer{service: service}
}

func Register(server grpc.ServiceRegistrar, svc StorefrontInternalService) {
	server.RegisterService(&grpc.ServiceDesc{
		ServiceName: serviceName,
		HandlerType: (*StorefrontInternalService)(nil),
		Methods: []grpc.MethodDesc{
			{
				MethodName: "CheckDownloadAccess",
				Handler:    unaryHandler("CheckDownloadAccess", svc.CheckDownloadAccess),
			},
			{
				MethodName: "GetCheckoutStatus",
				Handler:    unaryHandler("GetCheckoutStatus", svc.GetCheckoutStatus),
			},
		},
		Streams:  []grpc.StreamDesc{},
		Metadata: "storefront/v1/storefront_internal.proto",
	}, svc)
}

func (s *StorefrontInternalServer) CheckDownloadAccess(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	token := req.GetFields()["token"].GetStringValue()
	if token == "" {
		return nil, status.Error(codes.InvalidArgument, "missing token")
	}

	res, err := s.service.DownloadStatus(ctx, token)
	if err != nil {
		return nil, toStatus(err)
	}

	resp, err := structpb.NewStruct(map[string]any{
		"purchase_id":         res.Purchase.ID.String(),
		"email":               res.Purchase.Email,
		"can_download":        res.CanDownload,
		"reason":              string(res.Reason),
		"downloads_remaining": res.DownloadsRemaining,
		"is_expired":          res.IsExpired,
		"is_limit_exceeded":   res.IsLimitExceeded,
		"is_completed":        res.IsCompleted,
	})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "build response: %v", err)
	}
	return resp, nil
}

func (s *StorefrontInternalServer) GetCheckoutStatus(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	sessionID := req.GetFields()["session_id"].GetStringValue()
	if sessionID == "" {
		return nil, status.Error(codes.InvalidArgument, "missing session_id")
	}

	res, err := s.service.CheckoutStatus(ctx, sessionID)
	if err != nil {
		return nil, toStatus(err)
	}
	resp, err := structpb.NewStruct(map[string]any{
		"status":       string(res.Status),
		"email":        res.Email,
		"amount":       res.Amount,
		"currency":     res.Currency,
		"product_name": res.ProductName,
	})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "build response: %v", err)
	}
	return resp, nil
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		return status.Error(codes.NotFound, "purchase not found")
	default:
		return status.Error(codes.Internal, "internal error")
	}
}

type unaryMethod func(context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(method string, fn unaryMethod) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		req := &structpb.Struct{}
		if err := dec(req); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return fn(ctx, req)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: "/" + serviceName + "/" + method,
		}
		handler := func(ctx context.Context, req any) (any, error) {
			typed, ok := req.(*structpb.Struct)
			if !ok {
				return nil, status.Error(codes.InvalidArgument, "invalid request type")
			}
			return fn(ctx, typed)
		}
		return interceptor(ctx, req, info, handler)
	}
}
