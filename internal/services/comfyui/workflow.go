package comfyui

// Node ids in the workflow graph.
const (
	nodeSampler   = "3"
	nodeUNet      = "4"
	nodeCLIP      = "5"
	nodeLatent    = "6"
	nodePrompt    = "7"
	nodeDecode    = "8"
	nodeSaveImage = "9"
	nodeVAE       = "10"
)

type node struct {
	Inputs    map[string]any `json:"inputs"`
	ClassType string         `json:"class_type"`
}

// workflowParams are the values substituted into the graph.
type workflowParams struct {
	Prompt string
	Width  int
	Height int
	Steps  int
	Seed   int64
}

func link(id string) []any { return []any{id, 0} }

// buildWorkflow returns a fresh FLUX.1 schnell text-to-image graph.
func buildWorkflow(p workflowParams) map[string]node {
	return map[string]node{
		nodeUNet: {ClassType: "UNETLoader", Inputs: map[string]any{
			"unet_name":    "flux1-schnell.safetensors",
			"weight_dtype": "default",
		}},
		nodeCLIP: {ClassType: "DualCLIPLoader", Inputs: map[string]any{
			"clip_name1": "t5xxl_fp16.safetensors",
			"clip_name2": "clip_l.safetensors",
			"type":       "flux",
		}},
		nodeLatent: {ClassType: "EmptyLatentImage", Inputs: map[string]any{
			"width":      p.Width,
			"height":     p.Height,
			"batch_size": 1,
		}},
		nodePrompt: {ClassType: "CLIPTextEncode", Inputs: map[string]any{
			"text": p.Prompt,
			"clip": link(nodeCLIP),
		}},
		nodeVAE: {ClassType: "VAELoader", Inputs: map[string]any{
			"vae_name": "ae.safetensors",
		}},
		nodeSampler: {ClassType: "KSampler", Inputs: map[string]any{
			"seed":         p.Seed,
			"steps":        p.Steps,
			"cfg":          1.0,
			"sampler_name": "euler",
			"scheduler":    "simple",
			"denoise":      1,
			"model":        link(nodeUNet),
			"positive":     link(nodePrompt),
			"negative":     link(nodePrompt),
			"latent_image": link(nodeLatent),
		}},
		nodeDecode: {ClassType: "VAEDecode", Inputs: map[string]any{
			"samples": link(nodeSampler),
			"vae":     link(nodeVAE),
		}},
		nodeSaveImage: {ClassType: "SaveImage", Inputs: map[string]any{
			"filename_prefix": "quotereel",
			"images":          link(nodeDecode),
		}},
	}
}
