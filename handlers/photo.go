package handlers

import (
	"net/http"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/gin-gonic/gin"
)

// UploadPhoto accepts a multipart photo and stores it in Cloudinary,
// returning the secure URL for the client to place in its imageUrls.
func (api *API) UploadPhoto(c *gin.Context) {
	me, ok := currentUserID(c)
	if !ok {
		return
	}

	if api.Cfg.CloudinaryURL == "" {
		respondError(c, http.StatusInternalServerError, codeServerError, "photo storage is not configured")
		return
	}

	if err := c.Request.ParseMultipartForm(10 << 20); err != nil {
		respondError(c, http.StatusBadRequest, codeValidation, "failed to parse form data")
		return
	}

	photoFile, _, err := c.Request.FormFile("photo")
	if err != nil {
		respondError(c, http.StatusBadRequest, codeValidation, "no photo file provided")
		return
	}
	defer photoFile.Close()

	cld, err := cloudinary.NewFromURL(api.Cfg.CloudinaryURL)
	if err != nil {
		respondError(c, http.StatusInternalServerError, codeServerError, "photo storage configuration error")
		return
	}

	uploadResult, err := cld.Upload.Upload(c.Request.Context(), photoFile, uploader.UploadParams{
		Folder:         "amora/photos",
		PublicID:       me.Hex() + "_" + time.Now().Format("20060102150405"),
		Transformation: "c_limit,w_800,h_800,q_auto",
	})
	if err != nil {
		respondError(c, http.StatusInternalServerError, codeServerError, "failed to upload photo")
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": uploadResult.SecureURL})
}
