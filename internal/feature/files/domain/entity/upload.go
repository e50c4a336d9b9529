package entity

// UploadResult はアップロード済みオブジェクトの参照情報です。
type UploadResult struct {
	URL      string
	Key      string
	// FileName はクライアントが送ったファイル名のベース名です（ディレクトリ部分は含みません）。
	FileName string
}
