package simplesource

import (
	"net/url"
	"path"
	"strings"
)

// extensionCategories maps lowercase filename extensions (without the dot) to
// categories. Used as the fallback when the MIME type is absent or generic,
// and for URL path classification where no MIME type exists at all.
var extensionCategories = map[string]Category{
	"mp4":  CategoryVideo,
	"mov":  CategoryVideo,
	"webm": CategoryVideo,
	"mkv":  CategoryVideo,
	"avi":  CategoryVideo,
	"m4v":  CategoryVideo,

	"png":  CategoryImage,
	"jpg":  CategoryImage,
	"jpeg": CategoryImage,
	"gif":  CategoryImage,
	"webp": CategoryImage,
	"svg":  CategoryImage,
	"bmp":  CategoryImage,

	"pdf": CategoryPDF,

	"txt":  CategoryText,
	"md":   CategoryText,
	"csv":  CategoryText,
	"json": CategoryText,
	"log":  CategoryText,
	"yaml": CategoryText,
	"yml":  CategoryText,
}

// DetectCategory classifies a file by MIME type, falling back to the filename
// extension when the MIME type is absent or too generic to decide. Pure and
// deterministic: identical input always yields the same category.
func DetectCategory(mimeType, name string) Category {
	mt := strings.ToLower(strings.TrimSpace(mimeType))
	// Strip parameters like "; charset=utf-8"
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}

	switch {
	case strings.HasPrefix(mt, "video/"):
		return CategoryVideo
	case strings.HasPrefix(mt, "image/"):
		return CategoryImage
	case mt == "application/pdf":
		return CategoryPDF
	case strings.HasPrefix(mt, "text/"):
		return CategoryText
	}

	return categoryFromExtension(name)
}

// DetectCategoryFromURL classifies a remote link by its URL path extension
// using the same extension table as DetectCategory. Query strings and
// fragments never affect the result.
func DetectCategoryFromURL(rawURL string) Category {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return CategoryOther
	}
	return categoryFromExtension(u.Path)
}

func categoryFromExtension(name string) Category {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(name), "."))
	if ext == "" {
		return CategoryOther
	}
	if c, ok := extensionCategories[ext]; ok {
		return c
	}
	return CategoryOther
}
