package pagination

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/SscSPs/ledger_engine/internal/apperrors"
	"github.com/SscSPs/ledger_engine/internal/core/domain"
)

const timeFormat = time.RFC3339Nano // Use a precise time format

// EncodeMultiFieldToken creates a token with any number of string fields
func EncodeMultiFieldToken(fields ...string) string {
	tokenStr := strings.Join(fields, "|")
	return base64.URLEncoding.EncodeToString([]byte(tokenStr))
}

// DecodeMultiFieldToken decodes a token into its component fields
func DecodeMultiFieldToken(token string) ([]string, error) {
	decodedBytes, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid pagination token format (base64 decode): %v", apperrors.ErrValidation, err)
	}
	return strings.Split(string(decodedBytes), "|"), nil
}

// EncodePositionToken creates a token pointing at a leg's ledger position. The next page
// starts strictly after it.
func EncodePositionToken(pos domain.LegPosition) string {
	return EncodeMultiFieldToken(
		pos.Date.UTC().Format(timeFormat),
		strconv.FormatInt(pos.Sequence, 10),
		pos.LegID,
	)
}

// DecodePositionToken parses a token produced by EncodePositionToken.
func DecodePositionToken(token string) (domain.LegPosition, error) {
	parts, err := DecodeMultiFieldToken(token)
	if err != nil {
		return domain.LegPosition{}, err
	}
	if len(parts) != 3 {
		return domain.LegPosition{}, fmt.Errorf("%w: invalid pagination token format (split)", apperrors.ErrValidation)
	}
	date, err := time.Parse(timeFormat, parts[0])
	if err != nil {
		return domain.LegPosition{}, fmt.Errorf("%w: invalid pagination token format (date parse): %v", apperrors.ErrValidation, err)
	}
	seq, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return domain.LegPosition{}, fmt.Errorf("%w: invalid pagination token format (sequence parse): %v", apperrors.ErrValidation, err)
	}
	if parts[2] == "" {
		return domain.LegPosition{}, fmt.Errorf("%w: invalid pagination token format (missing leg)", apperrors.ErrValidation)
	}
	return domain.LegPosition{Date: date, Sequence: seq, LegID: parts[2]}, nil
}
