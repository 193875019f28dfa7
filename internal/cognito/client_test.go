package cognito

import (
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
)

func TestRegionFromPoolID(t *testing.T) {
	region, err := regionFromPoolID("ap-southeast-1_AbCdEfGhI")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if region != "ap-southeast-1" {
		t.Fatalf("region: %s", region)
	}

	for _, bad := range []string{"", "nopool", "_missing"} {
		if _, err := regionFromPoolID(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestMapError(t *testing.T) {
	cases := []struct {
		in   error
		want error
	}{
		{&types.TooManyRequestsException{}, ErrThrottled},
		{&types.NotAuthorizedException{}, ErrNotAuthorized},
		{&types.ExpiredCodeException{}, ErrExpiredCode},
		{&types.CodeMismatchException{}, ErrCodeMismatch},
		{&types.UsernameExistsException{}, ErrUserExists},
	}
	for _, tc := range cases {
		if got := mapError(tc.in); !errors.Is(got, tc.want) {
			t.Fatalf("mapError(%T): got %v, want %v", tc.in, got, tc.want)
		}
	}

	plain := errors.New("network down")
	if got := mapError(plain); got != plain {
		t.Fatalf("unmapped error should pass through, got %v", got)
	}
}
