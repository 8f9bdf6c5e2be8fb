package server

import (
	"net/http"
	"testing"

	catalogdomain "github.com/learnlyhq/learnly/internal/catalog/domain"
	paymentdomain "github.com/learnlyhq/learnly/internal/payment/domain"
)

func TestMapErrorStatuses(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{paymentdomain.ErrProcessingFailed, http.StatusInternalServerError},
		{paymentdomain.ErrInvalidSignature, http.StatusBadRequest},
		{paymentdomain.ErrInvalidPayload, http.StatusBadRequest},
		{paymentdomain.ErrInvalidEvent, http.StatusBadRequest},
		{paymentdomain.ErrProviderNotFound, http.StatusNotFound},
		{catalogdomain.ErrCourseNotFound, http.StatusNotFound},
		{ErrServiceUnavailable, http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		status, _ := mapError(tc.err)
		if status != tc.status {
			t.Fatalf("mapError(%v) = %d, want %d", tc.err, status, tc.status)
		}
	}
}
