package generator

import "slices"

// Compute devices understood by the diffusers backend.
const (
	DeviceAuto = "auto"
	DeviceMPS  = "mps"
	DeviceCUDA = "cuda"
	DeviceCPU  = "cpu"
)

// DevicePreference is the order in which accelerators are chosen when none is requested.
var DevicePreference = []string{DeviceMPS, DeviceCUDA, DeviceCPU}

// SelectDevice returns requested when it names a device, otherwise the first
// entry of prefs present in available. CPU is the fallback.
func SelectDevice(requested string, available, prefs []string) string {
	if requested != "" && requested != DeviceAuto {
		return requested
	}
	for _, d := range prefs {
		if slices.Contains(available, d) {
			return d
		}
	}
	return DeviceCPU
}

// dtypeFor uses full precision on CPU and half precision on accelerators.
func dtypeFor(device string) string {
	if device == DeviceCPU {
		return "float32"
	}
	return "float16"
}

func attentionSlicing(device string) bool {
	return device == DeviceMPS || device == DeviceCPU
}
