package semantic

import (
	"context"
	"fmt"
	"time"

	pb "github.com/eladbr/table-chains/go-matcher/gen/semantic"
	"github.com/eladbr/table-chains/go-matcher/internal/oracle"
	"golang.org/x/time/rate"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// #region client-struct
// Client wraps the gRPC connection to the Python embedding/validation
// service. Validation calls are rate-limited and retried with backoff;
// after retries are exhausted the caller sees an error and must fail
// closed.
type Client struct {
	conn       *grpc.ClientConn
	client     pb.SemanticServiceClient
	limiter    *rate.Limiter
	maxRetries int
	backoff    time.Duration
}

var _ oracle.Validator = (*Client)(nil)

// #endregion client-struct

// #region constructor
// NewClient connects to the semantic gRPC service.
func NewClient(addr string) (*Client, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("grpc dial %s: %w", addr, err)
	}
	return &Client{
		conn:       conn,
		client:     pb.NewSemanticServiceClient(conn),
		limiter:    rate.NewLimiter(rate.Limit(5), 5), // 5 validations/sec
		maxRetries: 2,
		backoff:    500 * time.Millisecond,
	}, nil
}

// NewClientWithService creates a Client with an injected service
// implementation. Used for testing without a real gRPC connection.
func NewClientWithService(svc pb.SemanticServiceClient) *Client {
	return &Client{
		client:     svc,
		limiter:    rate.NewLimiter(rate.Inf, 1),
		maxRetries: 2,
		backoff:    time.Millisecond,
	}
}

// Close shuts down the gRPC connection.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// #endregion constructor

// #region embed
// Embed requests an embedding for normalized header text.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := c.client.Embed(ctx, &pb.EmbedRequest{Text: text})
	if err != nil {
		return nil, fmt.Errorf("embed rpc: %w", err)
	}
	return resp.Embedding, nil
}

// #endregion embed

// #region validate-match
// ValidateMatch asks the service whether a candidate table continues the
// chain. Transient failures are retried with capped backoff.
func (c *Client) ValidateMatch(ctx context.Context, history []string, candidate string, similarity float64) (oracle.Validation, error) {
	var resp *pb.ValidateMatchResponse
	err := c.withRetry(ctx, func() error {
		var rpcErr error
		resp, rpcErr = c.client.ValidateMatch(ctx, &pb.ValidateMatchRequest{
			ChainHeaders: history,
			TableHeader:  candidate,
			Similarity:   float32(similarity),
		})
		return rpcErr
	})
	if err != nil {
		return oracle.Validation{}, fmt.Errorf("validate match rpc: %w", err)
	}
	decision := oracle.Decision(resp.Decision)
	switch decision {
	case oracle.DecisionAccept, oracle.DecisionReject, oracle.DecisionUncertain:
	default:
		// Malformed verdicts are discarded, not trusted.
		return oracle.Validation{}, fmt.Errorf("validate match rpc: unknown decision %q", resp.Decision)
	}
	return oracle.Validation{
		Decision:   decision,
		Confidence: float64(resp.Confidence),
		Rationale:  resp.Rationale,
	}, nil
}

// #endregion validate-match

// #region validate-equivalence
// ValidateEquivalence asks whether two chain headers describe the same
// continuing dataset (same variable, categorization axis, and measurement
// type).
func (c *Client) ValidateEquivalence(ctx context.Context, headerA, headerB string) (bool, error) {
	var resp *pb.ValidateEquivalenceResponse
	err := c.withRetry(ctx, func() error {
		var rpcErr error
		resp, rpcErr = c.client.ValidateEquivalence(ctx, &pb.ValidateEquivalenceRequest{
			HeaderA: headerA,
			HeaderB: headerB,
		})
		return rpcErr
	})
	if err != nil {
		return false, fmt.Errorf("validate equivalence rpc: %w", err)
	}
	return resp.Equivalent, nil
}

// #endregion validate-equivalence

// #region retry
// withRetry rate-limits and retries a validation call. maxRetries extra
// attempts, doubling backoff each time.
func (c *Client) withRetry(ctx context.Context, call func() error) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	var err error
	delay := c.backoff
	for attempt := 0; ; attempt++ {
		err = call()
		if err == nil || attempt >= c.maxRetries {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
}

// #endregion retry
