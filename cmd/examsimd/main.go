package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	api "github.com/mind-engage/examsim/internal/api/http"
	auth "github.com/mind-engage/examsim/internal/auth/middleware"
	"github.com/mind-engage/examsim/internal/config"
	"github.com/mind-engage/examsim/internal/db"
	"github.com/mind-engage/examsim/internal/decode"
	"github.com/mind-engage/examsim/internal/exam"
	"github.com/mind-engage/examsim/internal/extract"
	_ "github.com/mind-engage/examsim/internal/formats/jee"
	_ "github.com/mind-engage/examsim/internal/formats/standard"
	storage "github.com/mind-engage/examsim/internal/storage"
	syncx "github.com/mind-engage/examsim/internal/sync"
)

func main() {
	cfg := config.FromEnv()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}
	defer dbh.Close()
	store := exam.NewSQLStore(dbh, cfg.DBDriver)

	// --- Blob archive for uploaded sources ---
	var blobs storage.BlobStore
	if cfg.ArchiveUploads {
		bs, err := storage.NewFSStore(cfg.BlobBasePath)
		if err != nil {
			log.Fatalf("blob store: %v", err)
		}
		blobs = bs
	}

	// --- Decoders: pdf and image support depend on installed tools ---
	caps := decode.Detect()
	if !caps.PDFToText {
		log.Printf("pdftotext not found; .pdf uploads disabled")
	}
	if !caps.Tesseract {
		log.Printf("tesseract not found; image uploads disabled")
	}

	decoders := decode.NewRegistry(caps)
	decoders.Register(".docx", decode.DocxDecoder{MaxTextBytes: int64(cfg.ExtractMaxInputBytes)})

	extractor := extract.New(
		extract.WithMaxInputBytes(cfg.ExtractMaxInputBytes),
		extract.WithMinSpanLength(cfg.ExtractMinSpan),
		extract.WithMinStemLength(cfg.ExtractMinStem),
		extract.WithTrailingLines(cfg.ExtractTrailingLines),
		extract.WithLogger(logger),
	)

	h := api.NewRouter(api.Deps{
		Store:           store,
		Auth:            auth.NewAuthService(cfg.AuthHMACSecret),
		Decoders:        decoders,
		Extractor:       extractor,
		Blobs:           blobs,
		Events:          syncx.NewEventRepo(dbh),
		Logger:          logger,
		AdminUser:       cfg.AdminUser,
		AdminPassHash:   cfg.AdminPassHash,
		MaxUploadBytes:  cfg.MaxUploadBytes,
		DefaultDuration: time.Duration(cfg.DefaultDurationMin) * time.Minute,
		CORSOrigins:     cfg.CORSOrigins(),
		Ready:           dbh.PingContext,
	})

	log.Printf("listening on %s (mode=%s, db=%s, pdf=%t, ocr=%t)",
		cfg.HTTPAddr, cfg.Mode, cfg.DBDriver, caps.PDFToText, caps.Tesseract)
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, h))
}
