package apimodel

type Status struct {
	Version     string `json:"version"`
	Strategy    string `json:"strategy"`
	TimeValid   bool   `json:"time_valid"`
	SyncState   string `json:"sync_state"`
	Address     string `json:"address,omitempty"`
	Timezone    string `json:"timezone"`
	DisplayOn   bool   `json:"display_on"`
	DisplayOk   bool   `json:"display_ok"`
	LocalTime   string `json:"local_time,omitempty"`
	FreeHeapKiB uint64 `json:"free_heap_kib"`
}

type DisplaySwitch struct {
	DisplayOn bool `json:"display_on"`
}
