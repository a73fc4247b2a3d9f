package entitlements

import "strings"

type SubscriptionStatus string

const (
	StatusNone     SubscriptionStatus = "NONE"
	StatusActive   SubscriptionStatus = "ACTIVE"
	StatusCanceled SubscriptionStatus = "CANCELED"
	StatusPastDue  SubscriptionStatus = "PAST_DUE"
)

type AccessType string

const (
	AccessFree    AccessType = "FREE"
	AccessPremium AccessType = "PREMIUM"
)

type VideoType string

const (
	VideoLong  VideoType = "LONG"
	VideoShort VideoType = "SHORT"
)

// FeedKind selects which catalog listing is requested. FeedAll is the
// listing without a type filter.
type FeedKind string

const (
	FeedAll   FeedKind = ""
	FeedLong  FeedKind = FeedKind(VideoLong)
	FeedShort FeedKind = FeedKind(VideoShort)
)

// DefaultTrailerSeconds is used for premium videos without an explicit trailer length.
const DefaultTrailerSeconds = 30

func (s SubscriptionStatus) Valid() bool {
	switch s {
	case StatusNone, StatusActive, StatusCanceled, StatusPastDue:
		return true
	default:
		return false
	}
}

func (a AccessType) Valid() bool {
	switch a {
	case AccessFree, AccessPremium:
		return true
	default:
		return false
	}
}

func (v VideoType) Valid() bool {
	switch v {
	case VideoLong, VideoShort:
		return true
	default:
		return false
	}
}

func (f FeedKind) Valid() bool {
	switch f {
	case FeedAll, FeedLong, FeedShort:
		return true
	default:
		return false
	}
}

// ParseAccessType accepts the enum case-insensitively.
func ParseAccessType(s string) (AccessType, bool) {
	a := AccessType(strings.ToUpper(strings.TrimSpace(s)))
	return a, a.Valid()
}

// ParseVideoType accepts the enum case-insensitively.
func ParseVideoType(s string) (VideoType, bool) {
	v := VideoType(strings.ToUpper(strings.TrimSpace(s)))
	return v, v.Valid()
}

// ParseFeedKind maps the ?type= query value to a feed. An empty value is FeedAll.
func ParseFeedKind(s string) (FeedKind, bool) {
	f := FeedKind(strings.ToUpper(strings.TrimSpace(s)))
	return f, f.Valid()
}

// CanViewFull reports whether the full asset may be served. Unknown values deny.
func CanViewFull(status SubscriptionStatus, access AccessType) bool {
	switch access {
	case AccessFree:
		return true
	case AccessPremium:
		return status == StatusActive
	default:
		return false
	}
}

// ListableInFeed decides whether a video shows up in a catalog listing.
// Shorts are filtered at list time: premium shorts are hidden from viewers
// without an active subscription. Long-form videos are always listed and the
// decision is deferred to Playback.
func ListableInFeed(videoType VideoType, access AccessType, status SubscriptionStatus, feed FeedKind) bool {
	if !videoType.Valid() || !access.Valid() {
		return false
	}
	switch feed {
	case FeedShort:
		if videoType != VideoShort {
			return false
		}
		return CanViewFull(status, access)
	case FeedLong:
		return videoType == VideoLong
	case FeedAll:
		return true
	default:
		return false
	}
}

// FeedAccessRestriction returns the access type a listing query must be
// limited to, if any. It is the query-side form of ListableInFeed.
func FeedAccessRestriction(feed FeedKind, status SubscriptionStatus) (AccessType, bool) {
	if feed == FeedShort && status != StatusActive {
		return AccessFree, true
	}
	return "", false
}

type PlaybackMode string

const (
	PlaybackFull    PlaybackMode = "full"
	PlaybackTrailer PlaybackMode = "trailer"
	PlaybackDenied  PlaybackMode = "denied"
)

type PlaybackDecision struct {
	Mode           PlaybackMode `json:"mode"`
	TrailerSeconds int          `json:"trailerSeconds,omitempty"`
}

// CanViewFull is a convenience for templates and JSON responses.
func (d PlaybackDecision) CanViewFull() bool {
	return d.Mode == PlaybackFull
}

// Playback decides what a content-serving path returns for a single video.
func Playback(status SubscriptionStatus, access AccessType, trailerSeconds *int) PlaybackDecision {
	if CanViewFull(status, access) {
		return PlaybackDecision{Mode: PlaybackFull}
	}
	if access != AccessPremium {
		return PlaybackDecision{Mode: PlaybackDenied}
	}
	window := DefaultTrailerSeconds
	if trailerSeconds != nil && *trailerSeconds > 0 {
		window = *trailerSeconds
	}
	return PlaybackDecision{Mode: PlaybackTrailer, TrailerSeconds: window}
}

// TrailerForAccess normalizes a trailer length for storage: nil for free
// content, the given positive value or DefaultTrailerSeconds for premium.
func TrailerForAccess(access AccessType, trailerSeconds *int) *int {
	if access != AccessPremium {
		return nil
	}
	v := DefaultTrailerSeconds
	if trailerSeconds != nil && *trailerSeconds > 0 {
		v = *trailerSeconds
	}
	return &v
}
