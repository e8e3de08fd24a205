package spacetraveling

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"path"

	"github.com/sirupsen/logrus"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/eringen/spacetraveling/content"
)

const (
	jpegQuality   = 80
	maxBannerSize = 20 << 20 // 20MB
	imagesSubdir  = "images"
)

// processBanner decodes an image from src, downscales it to maxWidth when
// wider, and encodes it as JPEG.
func processBanner(src io.Reader, maxWidth int) ([]byte, error) {
	img, _, err := image.Decode(src)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	if maxWidth > 0 && w > maxWidth {
		newH := h * maxWidth / w
		dst := image.NewRGBA(image.Rect(0, 0, maxWidth, newH))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		img = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

func bannerPath(uid string) string {
	return path.Join(imagesSubdir, uid+"-banner.jpg")
}

// localizeBanner copies the post banner into the output and points the
// post at the local copy. Failures leave the remote URL in place.
func (a *App) localizeBanner(ctx context.Context, w *artifactWriter, post *content.Post) {
	src := post.Data.Banner.URL
	if src == "" {
		return
	}
	log := a.Logger.WithFields(logrus.Fields{"uid": post.UID, "banner": src})

	data, err := a.fetchBanner(ctx, src)
	if err != nil {
		log.WithError(err).Warn("banner download failed, keeping remote url")
		return
	}
	rel := bannerPath(post.UID)
	if err := w.write(ctx, rel, data); err != nil {
		log.WithError(err).Warn("banner write failed, keeping remote url")
		return
	}
	post.Data.Banner.URL = "/" + rel
}

func (a *App) fetchBanner(ctx context.Context, src string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, err
	}
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return processBanner(io.LimitReader(resp.Body, maxBannerSize), a.Config.Build.BannerMaxWidth)
}
