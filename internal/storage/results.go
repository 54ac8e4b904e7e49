package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/protein-design-studio/internal/domain"
)

// fileURLPrefix is the route under which stored files are served.
const fileURLPrefix = "/api/v1/files/"

// Results scans a completed job's output tree for the well-known artifacts
// the front-end presents: the visualization CIF, metrics tables, the PDF
// overview, and the ranked design structures. Artifacts that a pipeline run
// did not produce are simply absent from the listing.
func (s *Store) Results(job *domain.DesignJob) ([]domain.ResultFile, error) {
	jobDir := s.JobOutputDir(job.ID.String())
	if _, err := os.Stat(jobDir); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("checking job output dir: %w", err)
	}

	var files []domain.ResultFile
	add := func(path string) error {
		if _, err := os.Stat(path); err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		rf, err := s.resultFile(path)
		if err != nil {
			return err
		}
		files = append(files, rf)
		return nil
	}

	// Root level CIF named after the input document.
	yamlStem := strings.TrimSuffix(filepath.Base(job.InputYAMLFilename), filepath.Ext(job.InputYAMLFilename))
	if err := add(filepath.Join(jobDir, yamlStem+".cif")); err != nil {
		return nil, err
	}

	rankedDir := filepath.Join(jobDir, "final_ranked_designs")
	for _, name := range []string{
		"all_designs_metrics.csv",
		fmt.Sprintf("final_designs_metrics_%d.csv", job.Budget),
		"results_overview.pdf",
	} {
		if err := add(filepath.Join(rankedDir, name)); err != nil {
			return nil, err
		}
	}

	// Ranked design structures, refolded and pre-refolding.
	designsDir := filepath.Join(rankedDir, fmt.Sprintf("final_%d_designs", job.Budget))
	for _, dir := range []string{designsDir, filepath.Join(designsDir, "before_refolding")} {
		ranked, err := rankFiles(dir)
		if err != nil {
			return nil, err
		}
		for _, path := range ranked {
			if err := add(path); err != nil {
				return nil, err
			}
		}
	}

	// Intermediate inverse-folding metrics.
	intermediateDir := filepath.Join(jobDir, "intermediate_designs_inverse_folded")
	for _, name := range []string{"aggregate_metrics_analyze.csv", "per_target_metrics_analyze.csv"} {
		if err := add(filepath.Join(intermediateDir, name)); err != nil {
			return nil, err
		}
	}

	return files, nil
}

// rankFiles returns the rank*.cif files directly inside dir, sorted by name.
func rankFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading designs dir: %w", err)
	}

	var paths []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.Type().IsRegular() && strings.HasPrefix(name, "rank") && strings.HasSuffix(name, ".cif") {
			paths = append(paths, filepath.Join(dir, name))
		}
	}
	sort.Strings(paths)
	return paths, nil
}

func (s *Store) resultFile(path string) (domain.ResultFile, error) {
	rel, err := filepath.Rel(s.root, path)
	if err != nil {
		return domain.ResultFile{}, fmt.Errorf("relativizing result path: %w", err)
	}
	rel = filepath.ToSlash(rel)

	return domain.ResultFile{
		Name: filepath.Base(path),
		Path: rel,
		URL:  fileURLPrefix + rel,
	}, nil
}
