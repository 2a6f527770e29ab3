// qr.go — QR-сущность и полиморфная полезная нагрузка (payload).
// Вариант payload определяется полем Type самой QR-записи (явный дискриминант),
// а не структурным угадыванием по набору ключей.
package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// QRType — тип QR-кода.
type QRType string

const (
	QRTypeWebsite QRType = "WEBSITE"
	QRTypeVCard   QRType = "V_CARD"
	QRTypePDF     QRType = "PDF"
	QRTypeImage   QRType = "IMAGE"
	QRTypeSocial  QRType = "SOCIAL"
)

// ParseQRType валидирует строковое представление типа QR.
func ParseQRType(s string) (QRType, error) {
	switch QRType(s) {
	case QRTypeWebsite, QRTypeVCard, QRTypePDF, QRTypeImage, QRTypeSocial:
		return QRType(s), nil
	default:
		return "", fmt.Errorf("неизвестный тип QR: %q", s)
	}
}

// RequiresMedia сообщает, требует ли тип QR прикреплённый медиа-файл.
func (t QRType) RequiresMedia() bool {
	switch t {
	case QRTypeImage, QRTypePDF, QRTypeVCard, QRTypeSocial:
		return true
	default:
		return false
	}
}

// SocialType — тип ссылки на социальную сеть.
type SocialType string

const (
	SocialWebsite   SocialType = "WEBSITE"
	SocialFacebook  SocialType = "FACEBOOK"
	SocialX         SocialType = "X"
	SocialTwitter   SocialType = "TWITTER"
	SocialInstagram SocialType = "INSTAGRAM"
	SocialWhatsApp  SocialType = "WHATSAPP"
	SocialTikTok    SocialType = "TIKTOK"
	SocialYouTube   SocialType = "YOUTUBE"
	SocialTelegram  SocialType = "TELEGRAM"
	SocialMessenger SocialType = "MESSENGER"
	SocialLinkedIn  SocialType = "LINKEDIN"
)

// validSocialTypes — допустимые значения SocialType.
var validSocialTypes = map[SocialType]bool{
	SocialWebsite: true, SocialFacebook: true, SocialX: true,
	SocialTwitter: true, SocialInstagram: true, SocialWhatsApp: true,
	SocialTikTok: true, SocialYouTube: true, SocialTelegram: true,
	SocialMessenger: true, SocialLinkedIn: true,
}

// Asset — объект в хранилище: bucket-ключ и публичный URL.
type Asset struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// VCard — payload типа V_CARD (электронная визитка).
type VCard struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
	Company   string `json:"company"`
	Job       string `json:"job"`
	Address   string `json:"address"`
	Summary   string `json:"summary"`
	Media     *Asset `json:"media,omitempty"`
}

// MediaData — payload типов IMAGE и PDF.
type MediaData struct {
	Company     string `json:"company"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Media       *Asset `json:"media,omitempty"`
}

// SocialLink — одна ссылка в payload типа SOCIAL.
type SocialLink struct {
	Text string     `json:"text"`
	URL  string     `json:"url"`
	Type SocialType `json:"type"`
}

// SocialData — payload типа SOCIAL (набор ссылок на соцсети).
type SocialData struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Media       *Asset       `json:"media,omitempty"`
	SocialMedia []SocialLink `json:"socialMedia"`
}

// Payload — полезная нагрузка QR: tagged union с ровно одним
// заполненным вариантом. Дискриминант хранится в QR.Type.
type Payload struct {
	Website string
	VCard   *VCard
	Media   *MediaData
	Social  *SocialData
}

// ParsePayload разбирает сырой payload в вариант, соответствующий
// типу QR. Для WEBSITE принимается JSON-строка либо сырая строка URL
// (multipart-поле формы приходит без кавычек), для остальных — JSON-объект.
// Возвращает ошибку, если форма не соответствует типу или отсутствуют
// обязательные поля.
func ParsePayload(t QRType, raw []byte) (Payload, error) {
	var p Payload

	switch t {
	case QRTypeWebsite:
		if err := json.Unmarshal(raw, &p.Website); err != nil {
			s := strings.TrimSpace(string(raw))
			// Multipart-поле формы приходит без кавычек — принимаем
			// сырую строку URL. JSON-объект или массив — ошибка формы.
			if strings.HasPrefix(s, "{") || strings.HasPrefix(s, "[") {
				return Payload{}, fmt.Errorf("payload WEBSITE должен быть строкой: %w", err)
			}
			p.Website = s
		}
		if p.Website == "" {
			return Payload{}, fmt.Errorf("payload WEBSITE: пустой URL")
		}

	case QRTypeVCard:
		v := &VCard{}
		if err := json.Unmarshal(raw, v); err != nil {
			return Payload{}, fmt.Errorf("payload V_CARD: %w", err)
		}
		if v.FirstName == "" || v.LastName == "" {
			return Payload{}, fmt.Errorf("payload V_CARD: firstName и lastName обязательны")
		}
		if v.Phone == "" || v.Email == "" {
			return Payload{}, fmt.Errorf("payload V_CARD: phone и email обязательны")
		}
		p.VCard = v

	case QRTypeImage, QRTypePDF:
		m := &MediaData{}
		if err := json.Unmarshal(raw, m); err != nil {
			return Payload{}, fmt.Errorf("payload %s: %w", t, err)
		}
		if m.Title == "" || m.Description == "" {
			return Payload{}, fmt.Errorf("payload %s: title и description обязательны", t)
		}
		p.Media = m

	case QRTypeSocial:
		s := &SocialData{}
		if err := json.Unmarshal(raw, s); err != nil {
			return Payload{}, fmt.Errorf("payload SOCIAL: %w", err)
		}
		if s.Title == "" || s.Description == "" {
			return Payload{}, fmt.Errorf("payload SOCIAL: title и description обязательны")
		}
		if len(s.SocialMedia) == 0 {
			return Payload{}, fmt.Errorf("payload SOCIAL: socialMedia не должен быть пустым")
		}
		for i, link := range s.SocialMedia {
			if link.URL == "" {
				return Payload{}, fmt.Errorf("payload SOCIAL: socialMedia[%d].url обязателен", i)
			}
			if !validSocialTypes[link.Type] {
				return Payload{}, fmt.Errorf("payload SOCIAL: недопустимый тип ссылки %q", link.Type)
			}
		}
		p.Social = s

	default:
		return Payload{}, fmt.Errorf("неизвестный тип QR: %q", t)
	}

	return p, nil
}

// MarshalJSON сериализует заполненный вариант payload напрямую:
// WEBSITE — голая строка, остальные — объект варианта.
func (p Payload) MarshalJSON() ([]byte, error) {
	switch {
	case p.VCard != nil:
		return json.Marshal(p.VCard)
	case p.Media != nil:
		return json.Marshal(p.Media)
	case p.Social != nil:
		return json.Marshal(p.Social)
	default:
		return json.Marshal(p.Website)
	}
}

// matches проверяет, что заполненный вариант соответствует типу QR.
// ParsePayload гарантирует это по построению; проверка используется
// тестами разбора.
func (p Payload) matches(t QRType) bool {
	switch t {
	case QRTypeWebsite:
		return p.Website != "" && p.VCard == nil && p.Media == nil && p.Social == nil
	case QRTypeVCard:
		return p.VCard != nil
	case QRTypeImage, QRTypePDF:
		return p.Media != nil
	case QRTypeSocial:
		return p.Social != nil
	default:
		return false
	}
}

// MediaAsset возвращает прикреплённый медиа-ассет варианта или nil.
func (p Payload) MediaAsset() *Asset {
	switch {
	case p.VCard != nil:
		return p.VCard.Media
	case p.Media != nil:
		return p.Media.Media
	case p.Social != nil:
		return p.Social.Media
	default:
		return nil
	}
}

// AttachMedia прикрепляет медиа-ассет к варианту payload.
// Для WEBSITE возвращает ошибку: строковый payload не несёт медиа.
func (p *Payload) AttachMedia(a Asset) error {
	switch {
	case p.VCard != nil:
		p.VCard.Media = &a
	case p.Media != nil:
		p.Media.Media = &a
	case p.Social != nil:
		p.Social.Media = &a
	default:
		return fmt.Errorf("payload WEBSITE не поддерживает медиа-ассет")
	}
	return nil
}

// ScanBucket — счётчик сканирований за один календарный день.
type ScanBucket struct {
	Date      string `json:"date"`
	ScanCount int64  `json:"scanCount"`
}

// QR — запись QR-кода: изображение кода, типизированный payload
// и телеметрия сканирований.
type QR struct {
	ID          string       `json:"id"`
	QRID        string       `json:"qrId"`
	QRName      string       `json:"qrName"`
	Type        QRType       `json:"type"`
	QRCode      Asset        `json:"qrcode"`
	Data        Payload      `json:"data"`
	Status      bool         `json:"status"`
	ScanCount   int64        `json:"scanCount"`
	ScanHistory []ScanBucket `json:"scanHistory"`
	CreatedBy   string       `json:"createdBy"`
	UpdatedBy   string       `json:"updatedBy"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}
