// seed loads a JSON array of listings into the configured storage slot and can
// print a development bearer token for a given owner id.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"car-classifieds/internal/core/auth"
	"car-classifieds/internal/core/config"
	"car-classifieds/internal/core/logger"
	"car-classifieds/internal/core/slot"
	"car-classifieds/internal/domain"
	"car-classifieds/internal/events"
	"car-classifieds/internal/repo"
	"car-classifieds/internal/service"
)

// seedRow 种子文件里允许直接写 owner
type seedRow struct {
	domain.ListingFields
	Owner string `json:"owner"`
}

func main() {
	fileFlag := flag.String("file", "", "path to a JSON array of listings")
	tokenFor := flag.String("token-for", "", "print a bearer token for this owner id")
	dryRun := flag.Bool("dry-run", false, "validate the file without writing")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load(os.Getenv("CONFIG_PATH"))
	log, cleanup := logger.New(cfg.Log.Level, cfg.Log.JSON)
	defer cleanup()

	if *tokenFor != "" {
		jwter := &auth.JWTer{
			Secret: []byte(cfg.JWT.Secret),
			Issuer: cfg.JWT.Issuer,
			TTL:    time.Duration(cfg.JWT.AccessTokenTTLMin) * time.Minute,
		}
		tok, err := jwter.Issue(*tokenFor)
		if err != nil {
			log.Fatal("issue token", zap.Error(err))
		}
		fmt.Println(tok)
	}
	if *fileFlag == "" {
		if *tokenFor == "" {
			flag.Usage()
			os.Exit(2)
		}
		return
	}

	rows, err := readRows(*fileFlag)
	if err != nil {
		log.Fatal("read seed file", zap.String("file", *fileFlag), zap.Error(err))
	}
	now := time.Now()
	for i, r := range rows {
		if err := r.ListingFields.Validate(now); err != nil {
			log.Fatal("invalid seed row", zap.Int("row", i), zap.Error(err))
		}
	}
	if *dryRun {
		log.Info("dry run ok", zap.Int("rows", len(rows)))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	sl, closeSlot, err := slot.Open(ctx, cfg, log)
	if err != nil {
		log.Fatal("open storage slot", zap.Error(err))
	}
	defer closeSlot()

	store := repo.NewListingStore(sl, log.Named("store"))
	svc := service.NewListingService(store, events.Nop{}, log.Named("service"))

	start := time.Now()
	for i, r := range rows {
		f := r.ListingFields
		f.Owner = r.Owner
		if _, err := svc.Create(ctx, f); err != nil {
			log.Fatal("seed listing", zap.Int("row", i), zap.Error(err))
		}
	}
	log.Info("seed done", zap.Int("rows", len(rows)), zap.Duration("took", time.Since(start)))
}

func readRows(path string) ([]seedRow, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var rows []seedRow
	if err := json.Unmarshal(b, &rows); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return rows, nil
}
