package config

import (
	"fileferry/internal/errors"
	ferryfs "fileferry/internal/fs"
)

// DefaultTOML is the commented starter configuration written by `fileferry init`.
const DefaultTOML = `# fileferry configuration

[producer]
# Spawn the extractor before each cycle. The pipeline only consumes its
# filesystem output; a non-zero exit is logged and the cycle continues.
enabled = false
command = ""
args = []
dir = ""

[files]
watch_dir = "./outputs"
pattern = "*_y_149-ALL.txt"
# Prefer the 14-digit YYYYMMDDHHMMSS prefix in filenames over mtime.
timestamp_prefix = true

[stability]
quiet_period_secs = 2
# 0 means poll at the quiet period itself.
poll_interval_secs = 0
max_wait_secs = 60

[transform]
enabled = false
format = "tsv"            # "tsv" or "csv"
skip_rows = 6
header = ["Plant", "Delivery", "Material"]
header_ordered = false
dedupe = false
trim = true
line_ending = "lf"        # "lf" or "crlf"

[api]
endpoint = "https://intranet.local/upload.php"
mode = "multipart"        # "multipart", "json_base64", or "lookup_enrich"
field_name = "file"
filename_key = "filename"
data_key = "data"
timeout_secs = 30
auth = "none"             # "none", "bearer", or "basic"
# Secrets are better kept in the environment:
#   FILEFERRY_API_BEARER_TOKEN, FILEFERRY_API_BASIC_PASSWORD
bearer_token = ""
basic_user = ""
basic_password = ""

[retry]
max_attempts = 3
base_delay_secs = 1
multiplier = 2
max_delay_secs = 30

[loop]
# 0 runs a single cycle and exits.
interval_seconds = 300

[archive]
enabled = false
dir = "./archive"

[lookup]
enabled = false
url = ""
post_url = ""
chunk_size = 50
cookie = ""
timeout_secs = 30

[log]
level = "info"
format = "text"
`

// WriteDefault writes DefaultTOML to path. Refuses to overwrite an existing
// file.
func WriteDefault(fsys ferryfs.FS, path string) error {
	if _, err := fsys.Stat(path); err == nil {
		return errors.New(errors.EUsage, "config file already exists: "+path)
	}
	if err := fsys.WriteFile(path, []byte(DefaultTOML), 0o644); err != nil {
		return errors.Wrap(errors.EInternal, "failed to write "+path, err)
	}
	return nil
}
