// Package checkpoint records the progress of crawl runs.
//
// Every crawl or fill run gets a run record that is updated after each
// visited page, so an interrupted run can be inspected afterwards with the
// status command. A record tracks:
//   - Mode, results file and number of planned pages
//   - Pages processed, succeeded and failed, and images saved
//   - The last visited URL and the final status of the run
//
// Records are stored in platform-specific data directories:
//   - Linux: ~/.local/share/catalogscraper/runs/ (or $XDG_DATA_HOME)
//   - macOS: ~/Library/Application Support/catalogscraper/runs/
//   - Windows: %APPDATA%/catalogscraper/runs/
//
// The record files are saved atomically and include versioning for future
// compatibility.
package checkpoint
