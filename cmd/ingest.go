package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/verisource/procure-cli/internal/model"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Register RFP and bid documents",
	Long: `Registers procurement documents with the store. Document references are
paths relative to the configured documents directory; text extraction reads
them from there during analysis and evaluation.`,
}

var ingestRFPCmd = &cobra.Command{
	Use:   "rfp",
	Short: "Register an RFP document",
	RunE:  runIngestRFP,
}

var ingestBidCmd = &cobra.Command{
	Use:   "bid",
	Short: "Register a single vendor bid",
	RunE:  runIngestBid,
}

var ingestBidsCmd = &cobra.Command{
	Use:   "bids",
	Short: "Bulk-register vendor bids from a directory",
	Long: `Registers every file in a directory (relative to the documents directory)
as a vendor bid for one RFP. The vendor name defaults to the file name
without its extension. Bids are keyed on (rfp, document), so re-running the
same directory updates rows instead of duplicating them.`,
	RunE: runIngestBids,
}

func init() {
	f := ingestRFPCmd.Flags()
	f.String("title", "", "RFP title (required)")
	f.String("agency", "", "soliciting agency")
	f.String("project", "", "agency project identifier")
	f.String("description", "", "short description")
	f.String("doc", "", "document path relative to the documents directory (required)")

	f = ingestBidCmd.Flags()
	f.String("rfp", "", "RFP id the bid responds to (required)")
	f.String("vendor", "", "vendor name (required)")
	f.String("doc", "", "document path relative to the documents directory (required)")

	f = ingestBidsCmd.Flags()
	f.String("rfp", "", "RFP id the bids respond to (required)")
	f.String("dir", "", "directory relative to the documents directory (required)")

	ingestCmd.AddCommand(ingestRFPCmd, ingestBidCmd, ingestBidsCmd)
	rootCmd.AddCommand(ingestCmd)
}

func runIngestRFP(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	title, _ := cmd.Flags().GetString("title")
	doc, _ := cmd.Flags().GetString("doc")
	if title == "" || doc == "" {
		return eris.New("ingest rfp: --title and --doc are required")
	}
	agency, _ := cmd.Flags().GetString("agency")
	project, _ := cmd.Flags().GetString("project")
	description, _ := cmd.Flags().GetString("description")

	if err := checkDocument(doc); err != nil {
		return err
	}

	st, err := newStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck

	rfp := &model.RFP{
		ID:          uuid.New().String(),
		Title:       title,
		Agency:      agency,
		ProjectID:   project,
		Description: description,
		DocumentRef: doc,
		UploadedAt:  time.Now().UTC(),
	}
	if err := st.CreateRFP(ctx, rfp); err != nil {
		return eris.Wrap(err, "ingest rfp")
	}

	fmt.Printf("RFP registered: %s\n", rfp.ID)
	return nil
}

func runIngestBid(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	rfpID, _ := cmd.Flags().GetString("rfp")
	vendor, _ := cmd.Flags().GetString("vendor")
	doc, _ := cmd.Flags().GetString("doc")
	if rfpID == "" || vendor == "" || doc == "" {
		return eris.New("ingest bid: --rfp, --vendor, and --doc are required")
	}

	if err := checkDocument(doc); err != nil {
		return err
	}

	st, err := newStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck

	if _, err := st.GetRFP(ctx, rfpID); err != nil {
		return eris.Wrapf(err, "ingest bid: rfp %s", rfpID)
	}

	bid := &model.VendorBid{
		ID:          uuid.New().String(),
		RFPID:       rfpID,
		VendorName:  vendor,
		SubmittedAt: time.Now().UTC(),
		DocumentRef: doc,
		IsProcessed: true,
	}
	if err := st.CreateBid(ctx, bid); err != nil {
		return eris.Wrap(err, "ingest bid")
	}

	fmt.Printf("Bid registered: %s (%s)\n", bid.ID, vendor)
	return nil
}

func runIngestBids(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	rfpID, _ := cmd.Flags().GetString("rfp")
	dir, _ := cmd.Flags().GetString("dir")
	if rfpID == "" || dir == "" {
		return eris.New("ingest bids: --rfp and --dir are required")
	}

	entries, err := os.ReadDir(filepath.Join(cfg.Documents.Dir, dir))
	if err != nil {
		return eris.Wrapf(err, "ingest bids: read directory %s", dir)
	}

	st, err := newStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck

	if _, err := st.GetRFP(ctx, rfpID); err != nil {
		return eris.Wrapf(err, "ingest bids: rfp %s", rfpID)
	}

	now := time.Now().UTC()
	var bids []model.VendorBid
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		bids = append(bids, model.VendorBid{
			ID:          uuid.New().String(),
			RFPID:       rfpID,
			VendorName:  strings.TrimSuffix(name, filepath.Ext(name)),
			SubmittedAt: now,
			DocumentRef: filepath.Join(dir, name),
			IsProcessed: true,
		})
	}
	if len(bids) == 0 {
		fmt.Println("No bid documents found.")
		return nil
	}

	written, err := st.UpsertBids(ctx, bids)
	if err != nil {
		return eris.Wrap(err, "ingest bids")
	}

	zap.L().Info("bid ingest complete",
		zap.String("rfp_id", rfpID),
		zap.Int("documents", len(bids)),
		zap.Int64("rows_written", written),
	)
	fmt.Printf("Registered %d bids for RFP %s\n", len(bids), rfpID)
	return nil
}

// checkDocument verifies the referenced file exists under the documents
// directory before registering a record that points at it.
func checkDocument(doc string) error {
	path := filepath.Join(cfg.Documents.Dir, doc)
	if _, err := os.Stat(path); err != nil {
		return eris.Wrapf(err, "ingest: document %s", path)
	}
	return nil
}
