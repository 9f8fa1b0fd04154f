package photo

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"syscall"
	"time"

	"sitedesk-backend/internal/api"
	"sitedesk-backend/internal/audit"
	"sitedesk-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

var errUnsafeURL = errors.New("image URL must be an absolute http or https URL")

// checkURL accepts absolute http(s) URLs with a host.
func checkURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Hostname() == "" {
		return errUnsafeURL
	}
	return nil
}

// refuseInternal stops the fetch client from dialing link-local (cloud
// metadata), multicast and unspecified addresses, whatever the URL resolved to.
func refuseInternal(_, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return err
	}
	ip := net.ParseIP(host)
	if ip == nil || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() || ip.IsMulticast() || ip.IsUnspecified() {
		return fmt.Errorf("refusing to fetch from %s", host)
	}
	return nil
}

var fetchClient = &http.Client{
	Timeout: 30 * time.Second,
	Transport: &http.Transport{
		DialContext:         (&net.Dialer{Timeout: 10 * time.Second, Control: refuseInternal}).DialContext,
		TLSHandshakeTimeout: 10 * time.Second,
	},
	CheckRedirect: func(req *http.Request, via []*http.Request) error {
		if len(via) >= 5 {
			return errors.New("too many redirects")
		}
		return checkURL(req.URL.String())
	},
}

// download fetches url, refusing bodies over maxBytes.
func download(ctx context.Context, client *http.Client, url string, maxBytes int) ([]byte, error) {
	if err := checkURL(url); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "sitedesk-backend/1.0")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}

	r := io.Reader(resp.Body)
	if maxBytes > 0 {
		r = io.LimitReader(resp.Body, int64(maxBytes)+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}
	if maxBytes > 0 && len(data) > maxBytes {
		return nil, fmt.Errorf("image larger than %d bytes", maxBytes)
	}
	return data, nil
}

// POST /api/photos/:id/import copies a linked photo's imageUrl into blob
// storage and renders its thumbnail. Photos already stored are returned as is.
func ImportPhotoHandler(d Deps) fiber.Handler {
	client := d.Client
	if client == nil {
		client = fetchClient
	}
	return func(c *fiber.Ctx) error {
		id, err := api.ParseID(c, "id")
		if err != nil {
			return err
		}
		ctx := c.UserContext()
		p, err := d.Store.Photos.Get(ctx, id)
		if err != nil {
			return api.NotFound(err, "photo")
		}
		if p.ImageKey != "" {
			return c.JSON(p)
		}
		if p.ImageURL == "" {
			return api.Invalid("imageUrl", "photo has no image URL to import")
		}
		if err := checkURL(p.ImageURL); err != nil {
			return api.Invalid("imageUrl", err.Error())
		}

		data, err := download(ctx, client, p.ImageURL, d.MaxBytes)
		if err != nil {
			d.Log.Warn("photo import failed", "photo_id", p.ID, "url", p.ImageURL, "err", err)
			return fiber.NewError(fiber.StatusBadGateway, "could not download image")
		}
		contentType, ext, err := sniff(data)
		if err != nil {
			return api.Invalid("imageUrl", err.Error())
		}
		thumb, err := Thumbnail(data)
		if err != nil {
			return api.Invalid("imageUrl", err.Error())
		}

		name := uuid.NewString()
		imageKey := fmt.Sprintf("sites/%d/%s%s", p.SiteID, name, ext)
		thumbKey := fmt.Sprintf("sites/%d/thumbs/%s.jpg", p.SiteID, name)
		if err := d.Blobs.Put(ctx, imageKey, bytes.NewReader(data), contentType); err != nil {
			return fmt.Errorf("store image: %w", err)
		}
		if err := d.Blobs.Put(ctx, thumbKey, bytes.NewReader(thumb), "image/jpeg"); err != nil {
			d.removeBlobs(c, imageKey)
			return fmt.Errorf("store thumbnail: %w", err)
		}

		before := p
		p.ImageKey, p.ThumbnailKey, p.ContentType = imageKey, thumbKey, contentType
		if err := d.Store.Photos.Update(ctx, &p); err != nil {
			d.removeBlobs(c, imageKey, thumbKey)
			return api.NotFound(err, "photo")
		}

		d.Audit.Record(c, audit.LogOptions{
			SiteID:      audit.SiteRef(p.SiteID),
			EntityType:  "photo",
			EntityID:    p.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Photo imported from %s (%d bytes)", p.ImageURL, len(data)),
			Before:      before,
			After:       p,
		})
		return c.JSON(p)
	}
}
