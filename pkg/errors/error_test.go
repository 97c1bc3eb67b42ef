package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/suite"
)

type ErrorTestSuite struct {
	suite.Suite
}

func TestErrorSuite(t *testing.T) {
	suite.Run(t, new(ErrorTestSuite))
}

func (suite *ErrorTestSuite) TestConstructors() {
	cause := errors.New("connection reset")

	tests := []struct {
		name    string
		err     *Error
		code    ErrorCode
		message string
		cause   error
		text    string
	}{
		{
			name:    "new",
			err:     New(ErrCodeDuplicateIndex, "duplicate timestamp in column close"),
			code:    ErrCodeDuplicateIndex,
			message: "duplicate timestamp in column close",
			text:    "[210] duplicate timestamp in column close",
		},
		{
			name:    "newf",
			err:     Newf(ErrCodeNotExactlyOneSource, "%d sources match %s/%s", 2, "AAPL", "close"),
			code:    ErrCodeNotExactlyOneSource,
			message: "2 sources match AAPL/close",
		},
		{
			name:    "wrap",
			err:     Wrap(ErrCodeCacheIO, "failed to write cache entry", cause),
			code:    ErrCodeCacheIO,
			message: "failed to write cache entry",
			cause:   cause,
			text:    "[1001] failed to write cache entry: connection reset",
		},
		{
			name:    "wrapf",
			err:     Wrapf(ErrCodeLockFailed, cause, "lock %s", "SyntheticSource"),
			code:    ErrCodeLockFailed,
			message: "lock SyntheticSource",
			cause:   cause,
		},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			suite.Equal(tc.code, tc.err.Code)
			suite.Equal(tc.message, tc.err.Message)
			suite.Equal(tc.cause, tc.err.Unwrap())

			if tc.text != "" {
				suite.Equal(tc.text, tc.err.Error())
			}
		})
	}
}

func (suite *ErrorTestSuite) TestCodeLookup() {
	inner := New(ErrCodeEmptyResponse, "provider returned nothing")
	outer := Wrap(ErrCodeCacheIO, "fetch failed", inner)

	suite.Equal(ErrCodeCacheIO, GetCode(outer), "the outermost code wins")
	suite.True(HasCode(outer, ErrCodeCacheIO))
	suite.False(HasCode(outer, ErrCodeEmptyResponse))
	suite.Equal(ErrCodeUnknown, GetCode(errors.New("plain")))

	suite.True(Is(outer, inner))

	var target *Error
	suite.Require().True(As(fmt.Errorf("replay: %w", outer), &target))
	suite.Equal(ErrCodeCacheIO, target.Code)
}

func (suite *ErrorTestSuite) TestCodeRanges() {
	suite.Equal(ErrorCode(1), ErrCodeUnknown)
	suite.Equal(ErrorCode(100), ErrCodeInvalidParameter)
	suite.Equal(ErrorCode(200), ErrCodeDataNotFound)
	suite.Equal(ErrorCode(900), ErrCodeNegativeBalance)
	suite.Equal(ErrorCode(1000), ErrCodeLockFailed)
}

func (suite *ErrorTestSuite) TestCategory() {
	tests := []struct {
		code     ErrorCode
		expected Category
	}{
		{ErrCodeUnknown, CategoryGeneral},
		{ErrCodeInvalidConfiguration, CategoryValidation},
		{ErrCodeDuplicateIndex, CategoryData},
		{ErrCodeNotExactlyOneSource, CategoryData},
		{ErrCodeMalformedPayload, CategoryData},
		{ErrCodeLimitOutOfBounds, CategoryInvariant},
		{ErrCodeUnsupportedEncoding, CategoryInvariant},
		{ErrCodeCacheIO, CategoryOperational},
		{ErrCodeJobTimeout, CategoryOperational},
	}

	for _, tc := range tests {
		suite.Equal(tc.expected, tc.code.Category(), "code %d", tc.code)
	}
}

func (suite *ErrorTestSuite) TestCategoryHelpers() {
	dataErr := New(ErrCodeEmptyResponse, "empty response")
	suite.True(IsDataError(dataErr))
	suite.False(IsInvariantError(dataErr))
	suite.False(IsOperationalError(dataErr))

	invariantErr := New(ErrCodeNegativeBalance, "negative balance")
	suite.True(IsInvariantError(invariantErr))
	suite.False(IsDataError(invariantErr))

	// a data error wrapped by an operational one is still a data error
	wrapped := Wrap(ErrCodeCacheIO, "fetch failed", dataErr)
	suite.True(IsOperationalError(wrapped))
	suite.True(IsDataError(wrapped))

	suite.True(IsInvariantError(fmt.Errorf("close order: %w", invariantErr)))

	suite.False(IsDataError(errors.New("plain")))
	suite.False(IsDataError(nil))
}
