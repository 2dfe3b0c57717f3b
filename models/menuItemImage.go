package models

import (
	"bytes"
	"context"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/mmdatafocus/kitchen_backend/config"
	"github.com/mmdatafocus/kitchen_backend/utils"
)

const thumbnailWidth = 200

// MediaStore keeps binary objects addressed by key.
type MediaStore interface {
	Put(ctx context.Context, objectName string, data []byte, contentType string) error
	Delete(ctx context.Context, objectName string) error
	URL(objectKey string) string
}

type UploadResponse struct {
	ImageUrl     string `json:"image_url"`
	ThumbnailUrl string `json:"thumbnail_url"`
}

// MakeThumbnail resizes to a fixed width, keeping the aspect ratio, as JPEG.
func MakeThumbnail(data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, utils.NewValidation("image", "failed to decode image: "+err.Error())
	}
	thumbnail := imaging.Resize(img, thumbnailWidth, 0, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumbnail, imaging.JPEG); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func menuItemObjectNames(filename string) (string, string) {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		ext = ".jpg"
	}
	base := "menu_items/" + utils.GenerateUniqueFilename()
	return base + ext, base + "_thumb.jpg"
}

// SetMenuItemImage uploads the image and its thumbnail, points the menu item at
// them and removes the previous pair.
func SetMenuItemImage(ctx context.Context, store MediaStore, id int, filename string, data []byte) (*MenuItem, error) {
	item, err := utils.FetchModel[MenuItem](ctx, id)
	if err != nil {
		return nil, err
	}

	thumbnail, err := MakeThumbnail(data)
	if err != nil {
		return nil, err
	}

	originalKey, thumbnailKey := menuItemObjectNames(filename)
	if err := store.Put(ctx, originalKey, data, http.DetectContentType(data)); err != nil {
		return nil, err
	}
	if err := store.Put(ctx, thumbnailKey, thumbnail, "image/jpeg"); err != nil {
		_ = store.Delete(ctx, originalKey)
		return nil, err
	}

	oldImage, oldThumbnail := item.ImageUrl, item.ThumbnailUrl
	db := config.GetDB()
	err = db.WithContext(ctx).Model(item).Updates(map[string]interface{}{
		"ImageUrl":     store.URL(originalKey),
		"ThumbnailUrl": store.URL(thumbnailKey),
	}).Error
	if err != nil {
		_ = store.Delete(ctx, originalKey)
		_ = store.Delete(ctx, thumbnailKey)
		return nil, utils.WrapDBError("set menu item image", "MenuItem", err)
	}

	removeStoredObjects(ctx, store, oldImage, oldThumbnail)
	if err := utils.RemoveRedisItem[MenuItem](id); err != nil {
		return nil, err
	}
	return item, nil
}

func RemoveMenuItemImage(ctx context.Context, store MediaStore, id int) (*MenuItem, error) {
	item, err := utils.FetchModel[MenuItem](ctx, id)
	if err != nil {
		return nil, err
	}
	oldImage, oldThumbnail := item.ImageUrl, item.ThumbnailUrl

	db := config.GetDB()
	err = db.WithContext(ctx).Model(item).Updates(map[string]interface{}{
		"ImageUrl":     "",
		"ThumbnailUrl": "",
	}).Error
	if err != nil {
		return nil, utils.WrapDBError("remove menu item image", "MenuItem", err)
	}

	removeStoredObjects(ctx, store, oldImage, oldThumbnail)
	if err := utils.RemoveRedisItem[MenuItem](id); err != nil {
		return nil, err
	}
	return item, nil
}

// failures only leave orphaned objects behind, so they are logged
func removeStoredObjects(ctx context.Context, store MediaStore, urls ...string) {
	for _, u := range urls {
		key := utils.ExtractObjectKeyFromURL(u)
		if key == "" {
			continue
		}
		if err := store.Delete(ctx, key); err != nil {
			config.LogError(config.GetLogger(), "MenuItem", "removeStoredObjects", "deleting object", key, err)
		}
	}
}
