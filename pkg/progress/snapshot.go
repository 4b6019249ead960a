package progress

import (
	"math"
	"time"

	"github.com/yourusername/build-fetch-go/internal/domain"
)

// DownloadSnapshot computes percentage, trailing-average speed and ETA for a job
// that has written done of total bytes in elapsed wall time. A total of zero or
// less means the size is unknown: percentage stays 0 and the ETA is Unknown.
func DownloadSnapshot(jobID string, done, total int64, elapsed time.Duration) domain.DownloadProgress {
	speed := 0.0
	if secs := elapsed.Seconds(); secs > 0 {
		speed = float64(done) / secs
	}

	p := domain.DownloadProgress{
		JobID:           jobID,
		DownloadedBytes: done,
		TotalBytes:      total,
		Speed:           speed,
	}

	if total <= 0 {
		p.ETA = Unknown
		return p
	}

	p.Percentage = math.Min(float64(done)/float64(total)*100, 100)

	eta := math.Inf(1)
	if speed > 0 {
		remaining := total - done
		if remaining < 0 {
			remaining = 0
		}
		eta = float64(remaining) / speed
	}
	p.ETA = FormatTime(eta)
	return p
}

// Completed returns the final 100% snapshot for a job
func Completed(jobID string, total int64) domain.DownloadProgress {
	return domain.DownloadProgress{
		JobID:           jobID,
		Percentage:      100,
		DownloadedBytes: total,
		TotalBytes:      total,
		ETA:             "0s",
	}
}
