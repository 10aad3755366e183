// Package media builds CDN image variants and manages uploads.
package media

import (
	"net/url"
	"path"
	"regexp"
	"strconv"
	"strings"
)

const cdnHost = "res.cloudinary.com"

const uploadSegment = "/upload/"

// Transform describes a resized variant of a CDN image.
type Transform struct {
	Width   int
	Height  int
	Crop    string
	Quality string
	Format  string
}

var (
	Thumbnail = Transform{Width: 400, Height: 400, Crop: "fill", Quality: "auto", Format: "auto"}
	Detail    = Transform{Width: 1200, Crop: "limit", Quality: "auto", Format: "auto"}
)

func (t Transform) segment() string {
	parts := make([]string, 0, 5)
	if t.Width > 0 {
		parts = append(parts, "w_"+strconv.Itoa(t.Width))
	}
	if t.Height > 0 {
		parts = append(parts, "h_"+strconv.Itoa(t.Height))
	}
	if t.Crop != "" {
		parts = append(parts, "c_"+t.Crop)
	}
	if t.Quality != "" {
		parts = append(parts, "q_"+t.Quality)
	}
	if t.Format != "" {
		parts = append(parts, "f_"+t.Format)
	}
	return strings.Join(parts, ",")
}

// TransformURL inserts the transformation after the upload segment of a
// CDN URL. Other URLs are returned unchanged.
func TransformURL(raw string, t Transform) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host != cdnHost {
		return raw
	}
	segment := t.segment()
	idx := strings.Index(u.Path, uploadSegment)
	if segment == "" || idx < 0 {
		return raw
	}

	head := u.Path[:idx+len(uploadSegment)]
	u.Path = head + segment + "/" + u.Path[idx+len(uploadSegment):]
	u.RawPath = ""
	return u.String()
}

// Variants returns the storefront thumbnail and detail URLs for raw.
func Variants(raw string) (thumbnail, detail string) {
	return TransformURL(raw, Thumbnail), TransformURL(raw, Detail)
}

var (
	versionSegment   = regexp.MustCompile(`^v\d+$`)
	transformSegment = regexp.MustCompile(`^[a-z]{1,2}_[^,/.]+(,[a-z]{1,2}_[^,/.]+)*$`)
)

// PublicIDFromURL recovers the asset id from a delivery URL. Everything
// after the version segment is the id; without one, leading
// transformation segments are skipped.
func PublicIDFromURL(raw string) (string, bool) {
	u, err := url.Parse(raw)
	if err != nil || u.Host != cdnHost {
		return "", false
	}
	idx := strings.Index(u.Path, uploadSegment)
	if idx < 0 {
		return "", false
	}

	segments := strings.Split(u.Path[idx+len(uploadSegment):], "/")
	versioned := false
	for i, seg := range segments {
		if versionSegment.MatchString(seg) {
			segments = segments[i+1:]
			versioned = true
			break
		}
	}
	if !versioned {
		for len(segments) > 1 && transformSegment.MatchString(segments[0]) {
			segments = segments[1:]
		}
	}

	id := strings.Join(segments, "/")
	id = strings.TrimSuffix(id, path.Ext(id))
	return id, id != ""
}
