package cms

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// ImageOptions are optional transformations applied by the image CDN.
type ImageOptions struct {
	Width  int
	Height int
	// Fit is one of clip, crop, fill, fillmax, max, scale, min.
	Fit string
}

// ImageURL turns an asset reference "image-<id>-<W>x<H>-<format>" into its
// cdn.sanity.io URL.
func ImageURL(projectID, dataset, ref string, opts ImageOptions) (string, error) {
	parts := strings.Split(ref, "-")
	if len(parts) != 4 || parts[0] != "image" || parts[1] == "" || parts[3] == "" {
		return "", fmt.Errorf("malformed image reference %q", ref)
	}
	dims := strings.Split(parts[2], "x")
	if len(dims) != 2 {
		return "", fmt.Errorf("malformed image dimensions in %q", ref)
	}
	for _, d := range dims {
		if n, err := strconv.Atoi(d); err != nil || n <= 0 {
			return "", fmt.Errorf("malformed image dimensions in %q", ref)
		}
	}

	u := fmt.Sprintf("https://cdn.sanity.io/images/%s/%s/%s-%s.%s", projectID, dataset, parts[1], parts[2], parts[3])

	q := url.Values{}
	if opts.Width > 0 {
		q.Set("w", strconv.Itoa(opts.Width))
	}
	if opts.Height > 0 {
		q.Set("h", strconv.Itoa(opts.Height))
	}
	if opts.Fit != "" {
		q.Set("fit", opts.Fit)
	}
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return u, nil
}
