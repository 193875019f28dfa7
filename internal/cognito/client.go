// Package cognito wraps the AWS Cognito email-OTP login flow.
package cognito

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
)

// ErrThrottled marks errors returned when Cognito throttles requests.
var ErrThrottled = errors.New("cognito throttling")

// ErrNotAuthorized marks errors returned when Cognito rejects credentials.
var ErrNotAuthorized = errors.New("cognito not authorized")

// ErrExpiredCode marks errors returned when Cognito sees expired codes.
var ErrExpiredCode = errors.New("cognito code expired")

// ErrCodeMismatch marks errors returned when Cognito sees mismatched codes.
var ErrCodeMismatch = errors.New("cognito code mismatch")

// ErrUserExists marks errors returned when trying to create an existing user.
var ErrUserExists = errors.New("cognito user already exists")

type Client struct {
	client   *cognitoidentityprovider.Client
	poolID   string
	clientID string
}

// NewClient creates a Cognito client from pool ID and client ID. The region
// is extracted from the pool ID (format: "region_poolid").
func NewClient(poolID, clientID string) (*Client, error) {
	region, err := regionFromPoolID(poolID)
	if err != nil {
		return nil, err
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return &Client{
		client:   cognitoidentityprovider.NewFromConfig(awsCfg),
		poolID:   poolID,
		clientID: clientID,
	}, nil
}

// InitiateEmailOTP starts the EMAIL_OTP authentication flow and returns a
// session token to use with VerifyEmailOTP.
func (c *Client) InitiateEmailOTP(ctx context.Context, email string) (string, error) {
	out, err := c.client.InitiateAuth(ctx, &cognitoidentityprovider.InitiateAuthInput{
		AuthFlow: types.AuthFlowTypeUserAuth,
		ClientId: aws.String(c.clientID),
		AuthParameters: map[string]string{
			"USERNAME":            email,
			"PREFERRED_CHALLENGE": "EMAIL_OTP",
		},
	})
	if err != nil {
		return "", mapError(err)
	}

	return aws.ToString(out.Session), nil
}

// VerifyEmailOTP verifies the OTP code sent to the user's email. A nil error
// means the challenge was answered and the login may proceed.
func (c *Client) VerifyEmailOTP(ctx context.Context, session, email, code string) error {
	_, err := c.client.RespondToAuthChallenge(ctx, &cognitoidentityprovider.RespondToAuthChallengeInput{
		ChallengeName: types.ChallengeNameTypeEmailOtp,
		ClientId:      aws.String(c.clientID),
		Session:       aws.String(session),
		ChallengeResponses: map[string]string{
			"USERNAME":       email,
			"EMAIL_OTP_CODE": code,
		},
	})
	if err != nil {
		return mapError(err)
	}

	return nil
}

// CreateUser registers the email in the user pool with email_verified=true
// and no welcome message.
func (c *Client) CreateUser(ctx context.Context, email string) error {
	_, err := c.client.AdminCreateUser(ctx, &cognitoidentityprovider.AdminCreateUserInput{
		UserPoolId:    aws.String(c.poolID),
		Username:      aws.String(email),
		MessageAction: types.MessageActionTypeSuppress,
		UserAttributes: []types.AttributeType{
			{Name: aws.String("email"), Value: aws.String(email)},
			{Name: aws.String("email_verified"), Value: aws.String("true")},
		},
	})
	if err != nil {
		return mapError(err)
	}
	return nil
}

func mapError(err error) error {
	var throttled *types.TooManyRequestsException
	if errors.As(err, &throttled) {
		return fmt.Errorf("%w: %v", ErrThrottled, err)
	}
	var notAuthorized *types.NotAuthorizedException
	if errors.As(err, &notAuthorized) {
		return fmt.Errorf("%w: %v", ErrNotAuthorized, err)
	}
	var expired *types.ExpiredCodeException
	if errors.As(err, &expired) {
		return fmt.Errorf("%w: %v", ErrExpiredCode, err)
	}
	var mismatch *types.CodeMismatchException
	if errors.As(err, &mismatch) {
		return fmt.Errorf("%w: %v", ErrCodeMismatch, err)
	}
	var userExists *types.UsernameExistsException
	if errors.As(err, &userExists) {
		return fmt.Errorf("%w: %v", ErrUserExists, err)
	}
	return err
}

func regionFromPoolID(poolID string) (string, error) {
	parts := strings.SplitN(poolID, "_", 2)
	if len(parts) < 2 || parts[0] == "" {
		return "", fmt.Errorf("invalid cognito pool id: %q", poolID)
	}
	return parts[0], nil
}
