// Package news defines the records produced by the harvesting core.
package news

// MaxImages caps the number of content images kept on one article record.
const MaxImages = 5

// ArticleLink is a candidate article discovered on a listing page. The URL is
// always absolute; the title is best-effort and may be empty.
type ArticleLink struct {
	URL   string `json:"url"`
	Title string `json:"title,omitempty"`
}

// ImageRef is one ranked content image inside an article record. Order is the
// zero-based insertion rank and stays dense after truncation.
type ImageRef struct {
	Src   string `json:"src"`
	Order int    `json:"order"`
	Alt   string `json:"alt,omitempty"`
}

// ArticleRecord is the normalized result of one successful extraction.
// FinalURL differs from OriginalURL when the origin redirected. Records are
// never partially populated: extraction either returns a full record (possibly
// with degraded title/body sentinels) or fails outright.
type ArticleRecord struct {
	Title       string     `json:"title"`
	ContentHTML string     `json:"content_html"`
	OriginalURL string     `json:"original_url"`
	FinalURL    string     `json:"final_url"`
	Images      []ImageRef `json:"images"`
}
