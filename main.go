package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"sort"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/errgroup"

	"muzipics/blobstore"
	"muzipics/bridge"
	"muzipics/config"
	"muzipics/convert"
	"muzipics/history"
	"muzipics/models"
	"muzipics/prompt"
	"muzipics/providers"
	"muzipics/request"
)

var (
	hf          providers.ImageProvider
	imageStore  blobstore.Store
	localMirror *blobstore.LocalStore
	hist        *history.Service
	bus         *bridge.Bus
	sourceCache *gocache.Cache
)

func main() {
	config.LoadConfig()

	hf = providers.NewHuggingFaceProvider(config.AppConfig.APIKeys.HuggingFace)
	bus = bridge.NewBus()
	sourceCache = gocache.New(config.AppConfig.CacheTTL(), 2*config.AppConfig.CacheTTL())

	hist = history.NewService(&history.FilePersister{Path: config.AppConfig.Settings.HistoryFile})
	hist.Load()

	setupStorage()

	// Serve static files and locally stored images
	fs := http.FileServer(http.Dir("static"))
	http.Handle("/static/", http.StripPrefix("/static/", fs))
	images := http.FileServer(http.Dir(config.AppConfig.Settings.LocalImageDir))
	http.Handle("/images/", http.StripPrefix("/images/", images))

	// Handle the API requests
	http.HandleFunc("/api/generate", handleGenerate)
	http.HandleFunc("/api/v2/generate", handleGenerateV2)
	http.HandleFunc("/api/upscale", handleUpscale)
	http.HandleFunc("/api/export", handleExport)
	http.HandleFunc("/api/thumbnail", handleThumbnail)
	http.HandleFunc("/api/models", handleModels)
	http.HandleFunc("/api/history", handleHistory)
	http.HandleFunc("/api/events", handleEvents)

	addr := ":" + config.AppConfig.Settings.Port
	log.Printf("Starting server on %s...", addr)
	if err := http.ListenAndServe(addr, nil); err != nil {
		log.Fatalf("Could not start server: %s\n", err)
	}
}

// setupStorage picks the response-encoding strategy once at startup.
// A misconfigured persisted store is fatal here, before any request runs.
func setupStorage() {
	cfg := config.AppConfig

	switch cfg.Settings.StorageStrategy {
	case "inline":
		imageStore = blobstore.NewInlineStore()
	case "local":
		store, err := blobstore.NewLocalStore(cfg.Settings.LocalImageDir)
		if err != nil {
			log.Fatalf("Could not set up local storage: %v", err)
		}
		imageStore = store
	case "s3":
		awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(cfg.S3.Region))
		if err != nil {
			log.Fatalf("Could not load AWS configuration: %v", err)
		}
		store, err := blobstore.NewS3Store(s3.NewFromConfig(awsCfg), cfg.S3.Bucket, cfg.S3.Region, cfg.S3.PublicBaseURL)
		if err != nil {
			log.Fatalf("Could not set up S3 storage: %v", err)
		}
		imageStore = store
	default:
		log.Fatalf("Unknown STORAGE_STRATEGY %q (want inline, local, or s3)", cfg.Settings.StorageStrategy)
	}
	log.Printf("Using %q storage strategy", cfg.Settings.StorageStrategy)

	// Optional mirror of persisted images to local disk.
	if cfg.Settings.SaveLocalCopy && cfg.Settings.StorageStrategy != "local" {
		mirror, err := blobstore.NewLocalStore(cfg.Settings.LocalImageDir)
		if err != nil {
			log.Printf("Warning: could not set up local mirror: %v", err)
		} else {
			localMirror = mirror
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError uses the profile A error shape: {"error": "..."}.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeErrorOK uses the profile B error shape: {"ok": false, "error": "..."}.
func writeErrorOK(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"ok": false, "error": msg})
}

// requireToken fails fast when the inference credential is missing. No
// network call may happen after a false return.
func requireToken() bool {
	return config.AppConfig.APIKeys.HuggingFace != ""
}

func upstreamStatus(err *providers.UpstreamError) int {
	if err.Status == 0 {
		return http.StatusInternalServerError
	}
	return err.Status
}

// persistImage saves the bytes through the active store, mirroring to local
// disk when configured. A failing mirror is logged, never fatal.
func persistImage(ctx context.Context, prefix string, data []byte, contentType string) (string, error) {
	if localMirror == nil {
		return imageStore.Save(ctx, prefix, data, contentType)
	}

	var url string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		u, err := imageStore.Save(gctx, prefix, data, contentType)
		url = u
		return err
	})
	g.Go(func() error {
		if _, err := localMirror.Save(gctx, prefix, data, contentType); err != nil {
			log.Printf("Error saving local copy: %v", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return "", err
	}
	return url, nil
}

func handleGenerate(w http.ResponseWriter, r *http.Request) {
	log.Println("Received a new request for /api/generate")
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Only POST method is allowed")
		return
	}

	var req request.GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	norm, verr := req.Normalize()
	if verr != nil {
		writeError(w, http.StatusBadRequest, verr.Message)
		return
	}

	// When style/preset keys arrive, the server composes the final prompt so
	// history replays reproduce the request byte-for-byte.
	if req.Style != "" || req.Preset != "" {
		norm.Prompt = prompt.Compose(norm.Prompt, req.Style, req.Preset)
		if req.Model == "" {
			norm.ModelKey = models.StyleToModel(req.Style)
		}
	}

	if !requireToken() {
		writeError(w, http.StatusInternalServerError, "Missing HUGGING_FACE_API_TOKEN")
		return
	}

	out, err := hf.Generate(r.Context(), providers.GenerationInput{
		Model:          models.Resolve(norm.ModelKey),
		Prompt:         norm.Prompt,
		NegativePrompt: norm.NegativePrompt,
		Steps:          norm.Steps,
		Guidance:       norm.Guidance,
		Width:          norm.Width,
		Height:         norm.Height,
	})
	if err != nil {
		status, msg := http.StatusInternalServerError, err.Error()
		if upErr, ok := err.(*providers.UpstreamError); ok {
			status = upstreamStatus(upErr)
		}
		bus.Publish(bridge.Error(msg))
		writeError(w, status, msg)
		return
	}

	url, err := persistImage(r.Context(), config.AppConfig.S3.KeyPrefix, out.ImageBytes, out.ContentType)
	if err != nil {
		log.Printf("Error persisting generated image: %v", err)
		writeError(w, http.StatusInternalServerError, "Could not store generated image")
		return
	}

	size := req.Orientation
	if size == "" {
		size = fmt.Sprintf("%dx%d", norm.Width, norm.Height)
	}
	style := req.Style
	if style == "" {
		style = norm.ModelKey
	}
	hist.Append(history.NewEntry(url, norm.Prompt, style, size))

	bus.Publish(bridge.Result(url, &bridge.Meta{
		Prompt: norm.Prompt,
		Model:  norm.ModelKey,
		Width:  norm.Width,
		Height: norm.Height,
	}))

	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

func handleGenerateV2(w http.ResponseWriter, r *http.Request) {
	log.Println("Received a new request for /api/v2/generate")
	if r.Method != http.MethodPost {
		writeErrorOK(w, http.StatusMethodNotAllowed, "Only POST method is allowed")
		return
	}

	var req request.AspectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorOK(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	norm, verr := req.Normalize()
	if verr != nil {
		writeErrorOK(w, http.StatusBadRequest, verr.Message)
		return
	}

	// A fixed seed makes the answer reproducible, so pick one when absent
	// and echo it back either way.
	if norm.Seed == nil {
		seed := rand.Int63n(1 << 31)
		norm.Seed = &seed
	}

	if !requireToken() {
		writeErrorOK(w, http.StatusInternalServerError, "Missing HUGGING_FACE_API_TOKEN")
		return
	}

	out, err := hf.Generate(r.Context(), providers.GenerationInput{
		Model:          models.Resolve(norm.ModelKey),
		Prompt:         norm.Prompt,
		NegativePrompt: norm.NegativePrompt,
		Steps:          norm.Steps,
		Guidance:       norm.Guidance,
		Width:          norm.Width,
		Height:         norm.Height,
		Seed:           norm.Seed,
	})
	if err != nil {
		status := http.StatusInternalServerError
		if upErr, ok := err.(*providers.UpstreamError); ok {
			status = upstreamStatus(upErr)
		}
		bus.Publish(bridge.Error(err.Error()))
		writeErrorOK(w, status, err.Error())
		return
	}

	url, err := persistImage(r.Context(), config.AppConfig.S3.KeyPrefix, out.ImageBytes, out.ContentType)
	if err != nil {
		log.Printf("Error persisting generated image: %v", err)
		writeErrorOK(w, http.StatusInternalServerError, "Could not store generated image")
		return
	}

	bus.Publish(bridge.Result(url, &bridge.Meta{
		Prompt: norm.Prompt,
		Model:  norm.ModelKey,
		Width:  norm.Width,
		Height: norm.Height,
	}))

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":     true,
		"url":    url,
		"seed":   *norm.Seed,
		"width":  norm.Width,
		"height": norm.Height,
	})
}

func handleUpscale(w http.ResponseWriter, r *http.Request) {
	log.Println("Received a new request for /api/upscale")
	if r.Method != http.MethodPost {
		writeErrorOK(w, http.StatusMethodNotAllowed, "Only POST method is allowed")
		return
	}

	var req struct {
		ImageURL string `json:"imageUrl"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ImageURL == "" {
		writeErrorOK(w, http.StatusBadRequest, "Missing imageUrl")
		return
	}

	if !requireToken() {
		writeErrorOK(w, http.StatusInternalServerError, "Missing HUGGING_FACE_API_TOKEN")
		return
	}

	src, err := fetchSource(r.Context(), req.ImageURL)
	if err != nil {
		writeErrorOK(w, http.StatusBadRequest, fmt.Sprintf("Cannot fetch source image: %v", err))
		return
	}

	prepared, err := convert.PrepareForUpscale(src)
	if err != nil {
		writeErrorOK(w, http.StatusBadRequest, err.Error())
		return
	}

	out, err := hf.Transform(r.Context(), models.UpscaleModelID, prepared)
	if err != nil {
		status := http.StatusInternalServerError
		if upErr, ok := err.(*providers.UpstreamError); ok {
			status = upstreamStatus(upErr)
		}
		writeErrorOK(w, status, err.Error())
		return
	}

	url, err := persistImage(r.Context(), "upscale/", out.ImageBytes, out.ContentType)
	if err != nil {
		log.Printf("Error persisting upscaled image: %v", err)
		writeErrorOK(w, http.StatusInternalServerError, "Could not store upscaled image")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "url": url})
}

func handleExport(w http.ResponseWriter, r *http.Request) {
	log.Println("Received a new request for /api/export")
	if r.Method != http.MethodPost {
		writeErrorOK(w, http.StatusMethodNotAllowed, "Only POST method is allowed")
		return
	}

	var req struct {
		URL     string  `json:"url"`
		Format  string  `json:"format"`
		Quality float64 `json:"quality"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" || req.Format == "" {
		writeErrorOK(w, http.StatusBadRequest, "Missing url or format")
		return
	}

	src, err := fetchSource(r.Context(), req.URL)
	if err != nil {
		writeErrorOK(w, http.StatusBadRequest, fmt.Sprintf("Cannot fetch source image: %v", err))
		return
	}

	data, contentType, err := convert.Convert(src, req.Format, req.Quality)
	if err != nil {
		writeErrorOK(w, http.StatusBadRequest, err.Error())
		return
	}

	url, err := persistImage(r.Context(), "export/", data, contentType)
	if err != nil {
		log.Printf("Error persisting exported image: %v", err)
		writeErrorOK(w, http.StatusInternalServerError, "Could not store exported image")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "url": url})
}

func handleThumbnail(w http.ResponseWriter, r *http.Request) {
	log.Println("Received a new request for /api/thumbnail")
	if r.Method != http.MethodPost {
		writeErrorOK(w, http.StatusMethodNotAllowed, "Only POST method is allowed")
		return
	}

	var req struct {
		URL string `json:"url"`
		Max int    `json:"max"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" {
		writeErrorOK(w, http.StatusBadRequest, "Missing url")
		return
	}
	if req.Max <= 0 {
		req.Max = 256
	}

	src, err := fetchSource(r.Context(), req.URL)
	if err != nil {
		writeErrorOK(w, http.StatusBadRequest, fmt.Sprintf("Cannot fetch source image: %v", err))
		return
	}

	thumb, err := convert.Thumbnail(src, req.Max)
	if err != nil {
		writeErrorOK(w, http.StatusBadRequest, err.Error())
		return
	}

	url, err := persistImage(r.Context(), "thumbs/", thumb, "image/jpeg")
	if err != nil {
		log.Printf("Error persisting thumbnail: %v", err)
		writeErrorOK(w, http.StatusInternalServerError, "Could not store thumbnail")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "url": url})
}

func handleModels(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Only GET method is allowed")
		return
	}

	type modelInfo struct {
		Key   string `json:"key"`
		Model string `json:"model"`
	}
	list := make([]modelInfo, 0, len(models.ModelMap))
	for key, id := range models.ModelMap {
		list = append(list, modelInfo{Key: key, Model: id})
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Key < list[j].Key })

	writeJSON(w, http.StatusOK, map[string]any{
		"models":  list,
		"default": models.DefaultModelKey,
	})
}

func handleHistory(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]any{"history": hist.Items()})
	case http.MethodDelete:
		hist.Clear()
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	default:
		writeError(w, http.StatusMethodNotAllowed, "Only GET and DELETE methods are allowed")
	}
}

// handleEvents streams bridge messages to the client as server-sent events.
// The subscription lives for the duration of the connection.
func handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "Streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	sub := bus.Subscribe()
	defer sub.Close()
	log.Println("Event subscriber attached")

	for {
		select {
		case msg, open := <-sub.C:
			if !open {
				return
			}
			data, err := json.Marshal(msg)
			if err != nil {
				log.Printf("Error marshalling event: %v", err)
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()
		case <-r.Context().Done():
			log.Println("Event subscriber detached")
			return
		}
	}
}

// fetchSource resolves an image reference to raw bytes. Data URLs are
// decoded locally; remote URLs go through a short-lived cache so repeated
// upscales or exports of the same image fetch it once.
func fetchSource(ctx context.Context, url string) ([]byte, error) {
	if strings.HasPrefix(url, "data:") {
		return decodeDataURL(url)
	}

	if cached, found := sourceCache.Get(url); found {
		if data, ok := cached.([]byte); ok {
			return data, nil
		}
	}

	data, _, err := providers.DownloadFile(ctx, url)
	if err != nil {
		return nil, err
	}
	sourceCache.Set(url, data, gocache.DefaultExpiration)
	return data, nil
}

func decodeDataURL(url string) ([]byte, error) {
	comma := strings.Index(url, ",")
	if comma < 0 {
		return nil, fmt.Errorf("invalid data URL: missing comma")
	}
	if !strings.Contains(url[:comma], "base64") {
		return nil, fmt.Errorf("invalid data URL: not base64 encoded")
	}
	data, err := base64.StdEncoding.DecodeString(url[comma+1:])
	if err != nil {
		return nil, fmt.Errorf("invalid data URL: %w", err)
	}
	return data, nil
}
