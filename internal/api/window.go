package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/vironax/adinsights/internal/domain"
)

// parseWindow resolves the window grammar shared by every analytics endpoint:
// days=N, weeks=N, months=N, yesterday=1, or startDate/endDate. Relative
// windows end today in the store's timezone. Defaults to days=30.
func parseWindow(r *http.Request, loc *time.Location) (domain.Window, error) {
	q := r.URL.Query()
	now := time.Now().In(loc)

	if start, end := q.Get("startDate"), q.Get("endDate"); start != "" || end != "" {
		if start == "" || end == "" {
			return domain.Window{}, fmt.Errorf("startDate and endDate must be given together")
		}
		w, err := domain.NewWindow(start, end)
		if err != nil {
			return domain.Window{}, err
		}
		return w, nil
	}

	if q.Get("yesterday") == "1" {
		y := now.AddDate(0, 0, -1)
		return domain.LastNDays(y, 1), nil
	}

	if v := q.Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return domain.Window{}, fmt.Errorf("days must be a positive integer")
		}
		return domain.LastNDays(now, n), nil
	}
	if v := q.Get("weeks"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return domain.Window{}, fmt.Errorf("weeks must be a positive integer")
		}
		return domain.LastNDays(now, n*7), nil
	}
	if v := q.Get("months"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return domain.Window{}, fmt.Errorf("months must be a positive integer")
		}
		end := domain.Midnight(now)
		return domain.Window{Start: end.AddDate(0, -n, 1), End: end}, nil
	}

	return domain.LastNDays(now, 30), nil
}
