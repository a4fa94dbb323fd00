package handlers

import (
	"encoding/json"
	"net/http"
	"os"
)

// maxUploadBytes caps site photo uploads at 10 MB.
const maxUploadBytes = 10 << 20

// UploadFile accepts a multipart "file" field and stores it either in
// GCS or on local disk depending on USE_GCS. Returns the public URL the
// client should attach to the DPR image.
func UploadFile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, "file too large or malformed upload", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "missing file field", http.StatusBadRequest)
		return
	}
	defer file.Close()

	var url string
	if os.Getenv("USE_GCS") == "true" {
		url, err = uploadToGCS(r.Context(), file, header.Filename)
	} else {
		url, err = uploadToLocal(file, header.Filename)
	}
	if err != nil {
		http.Error(w, "upload failed: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]string{"url": url})
}
