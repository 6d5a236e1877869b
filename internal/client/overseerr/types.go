package overseerr

// MediaType for Overseerr API
type MediaType string

const (
	MediaTypeTV    MediaType = "tv"
	MediaTypeMovie MediaType = "movie"
)

// MediaStatus represents the status of media in Overseerr
type MediaStatus int

const (
	MediaStatusUnknown        MediaStatus = 1
	MediaStatusPending        MediaStatus = 2
	MediaStatusProcessing     MediaStatus = 3
	MediaStatusPartiallyAvail MediaStatus = 4
	MediaStatusAvailable      MediaStatus = 5
)

// RequestStatus represents request status
type RequestStatus int

const (
	RequestStatusPending  RequestStatus = 1
	RequestStatusApproved RequestStatus = 2
	RequestStatusDeclined RequestStatus = 3
)

// RequestPage is one page of GET /request.
type RequestPage struct {
	PageInfo PageInfo  `json:"pageInfo"`
	Results  []Request `json:"results"`
}

type PageInfo struct {
	Pages    int `json:"pages"`
	PageSize int `json:"pageSize"`
	Results  int `json:"results"`
	Page     int `json:"page"`
}

type Request struct {
	ID          int           `json:"id"`
	Status      RequestStatus `json:"status"`
	Type        MediaType     `json:"type"`
	Media       *MediaInfo    `json:"media,omitempty"`
	RequestedBy *User         `json:"requestedBy,omitempty"`
	CreatedAt   string        `json:"createdAt"`
}

type MediaInfo struct {
	ID        int         `json:"id"`
	MediaType MediaType   `json:"mediaType"`
	TMDBID    int         `json:"tmdbId"`
	IMDBID    string      `json:"imdbId,omitempty"`
	Status    MediaStatus `json:"status"`
}

type User struct {
	ID          int    `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
}

// MovieDetails from GET /movie/{tmdbId}. ReleaseDate is YYYY-MM-DD or empty.
type MovieDetails struct {
	ID          int         `json:"id"`
	Title       string      `json:"title"`
	ReleaseDate string      `json:"releaseDate"`
	ExternalIDs ExternalIDs `json:"externalIds"`
}

type ExternalIDs struct {
	IMDBID string `json:"imdbId"`
}
