package spicedb

import (
	"context"

	"ticketgate/internal/authz"
	"ticketgate/internal/observability/logging"

	v1pb "github.com/authzed/authzed-go/proto/authzed/api/v1"
	"google.golang.org/grpc"
)

// PermissionChecker is the part of the SpiceDB client the authorizer uses
type PermissionChecker interface {
	CheckPermission(ctx context.Context, in *v1pb.CheckPermissionRequest, opts ...grpc.CallOption) (*v1pb.CheckPermissionResponse, error)
}

// Authorizer implements authorization using SpiceDB
type Authorizer struct {
	client       PermissionChecker
	resourceType string
	resourceID   string
	subjectType  string
	logger       *logging.Logger
}

// Config holds SpiceDB authorizer configuration
type Config struct {
	// Endpoint is the SpiceDB endpoint
	Endpoint string

	// Insecure indicates whether to use an insecure connection
	Insecure bool

	// Token is the SpiceDB authentication token
	Token string

	// ResourceType is the SpiceDB resource type
	ResourceType string

	// ResourceID is the SpiceDB resource ID
	ResourceID string

	// SubjectType is the SpiceDB subject type
	SubjectType string
}

// New creates a new SpiceDB authorizer
func New(config Config, client PermissionChecker, logger *logging.Logger) *Authorizer {
	return &Authorizer{
		client:       client,
		resourceType: config.ResourceType,
		resourceID:   config.ResourceID,
		subjectType:  config.SubjectType,
		logger:       logger.WithModule("authz.spicedb"),
	}
}

// Authorize checks if the identity has the specified permission on the resource
func (a *Authorizer) Authorize(req *authz.Request) *authz.Response {
	if req.Identity == nil {
		return authz.NoIdentity()
	}

	ctx := req.Context
	if ctx == nil {
		ctx = context.Background()
	}
	logger := logging.FromContextOr(ctx, a.logger)

	// Determine resource ID to use
	resourceID := req.Resource
	if resourceID == "" {
		resourceID = a.resourceID
	}

	checkReq := &v1pb.CheckPermissionRequest{
		Resource: &v1pb.ObjectReference{
			ObjectType: a.resourceType,
			ObjectId:   resourceID,
		},
		Permission: req.Permission,
		Subject: &v1pb.SubjectReference{
			Object: &v1pb.ObjectReference{
				ObjectType: a.subjectType,
				ObjectId:   req.Identity.Subject,
			},
		},
	}

	// The request context cancels the check when the caller goes away
	resp, err := a.client.CheckPermission(ctx, checkReq)
	if err != nil {
		logger.Error("Error checking permission with SpiceDB",
			logging.Err(err),
			"subject", req.Identity.Subject,
			"resource", resourceID,
			"permission", req.Permission,
		)
		return &authz.Response{
			Decision: authz.Error,
			Reason:   "Error checking permission",
			Error:    err,
		}
	}

	if resp.GetPermissionship() == v1pb.CheckPermissionResponse_PERMISSIONSHIP_HAS_PERMISSION {
		return &authz.Response{
			Decision: authz.Allow,
			Reason:   "Permission granted",
		}
	}

	return &authz.Response{
		Decision: authz.Deny,
		Reason:   "Permission denied",
	}
}
