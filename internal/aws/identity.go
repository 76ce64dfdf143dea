package aws

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// CallerIdentity summarizes the credentials the run is using.
type CallerIdentity struct {
	Account string
	Arn     string
	UserID  string
}

// GetCallerIdentity resolves the current credentials via STS. Used as a
// preflight so a bad profile fails before any discovery starts.
func (c *Client) GetCallerIdentity(ctx context.Context) (*CallerIdentity, error) {
	if c.STS == nil {
		return nil, fmt.Errorf("STS client not initialized")
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
	}

	out, err := c.STS.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return nil, fmt.Errorf("failed to get caller identity: %w", err)
	}

	return &CallerIdentity{
		Account: getString(out.Account),
		Arn:     getString(out.Arn),
		UserID:  getString(out.UserId),
	}, nil
}
