package media

import "os/exec"

// ToolStatus reports the availability of one external tool. Probing is an
// explicit data-producing step: the caller decides what a missing tool means
// instead of discovering it mid-run.
type ToolStatus struct {
	Name string
	Path string
	OK   bool
}

// Tools probes every external binary the processor depends on.
func (p *Processor) Tools() []ToolStatus {
	probe := func(name, bin string) ToolStatus {
		path, err := exec.LookPath(bin)
		if err != nil {
			return ToolStatus{Name: name, Path: bin, OK: false}
		}
		return ToolStatus{Name: name, Path: path, OK: true}
	}

	return []ToolStatus{
		probe("ffmpeg", p.ffmpeg),
		probe("ffprobe", p.ffprobe),
		probe("yt-dlp", p.ytdlp),
	}
}

// ToolsOK reports whether every required tool is available.
func (p *Processor) ToolsOK() bool {
	for _, t := range p.Tools() {
		if !t.OK {
			return false
		}
	}
	return true
}
