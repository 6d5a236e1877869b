package tvmaze

// Show is a TVMaze show with its episodes embedded.
type Show struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	Premiered string    `json:"premiered"`
	Externals Externals `json:"externals"`
	Embedded  struct {
		Episodes []Episode `json:"episodes"`
	} `json:"_embedded"`
}

type Externals struct {
	TVRage  *int   `json:"tvrage"`
	TheTVDB *int   `json:"thetvdb"`
	IMDB    string `json:"imdb"`
}

type Episode struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Season  int    `json:"season"`
	Number  *int   `json:"number"` // null for specials
	Type    string `json:"type"`
	Airdate string `json:"airdate"` // YYYY-MM-DD, empty when unknown
}
