package embed_data

import _ "embed"

//go:embed prompts/scan_deep_prompt.tmpl
var ScanDeepPrompt []byte

//go:embed prompts/scan_fingerprint_prompt.tmpl
var ScanFingerprintPrompt []byte

//go:embed schemas/issues.json
var IssuesSchema []byte

//go:embed models_details.json
var ModelDetails []byte
